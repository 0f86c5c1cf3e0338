package handler

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/cloudwego/hertz/pkg/app"

	"DriverOnboard/pkg/response"
)

// GET /api/documents/:id/document-status
func GetDocumentStatus(ctx context.Context, c *app.RequestContext) {
	id, ok := ownDriver(ctx, c)
	if !ok {
		return
	}
	st, err := svc.DocumentStatus(ctx, id)
	reply(ctx, c, st, err)
}

// ReuploadDocument 重传单张证件，表单字段 document
// POST /api/documents/:id/reupload/:type
func ReuploadDocument(ctx context.Context, c *app.RequestContext) {
	id, ok := ownDriver(ctx, c)
	if !ok {
		return
	}

	fh, err := c.FormFile("document")
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	files := map[string]string{c.Param("type"): describeFile(fh)}
	if err := svc.ReuploadDocuments(ctx, id, files); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, "Document re-uploaded successfully", nil)
}

// ReuploadPair 重传一种证件的正反面，表单字段 front 和 back
// POST /api/documents/:id/reupload-pair/:pair
func ReuploadPair(ctx context.Context, c *app.RequestContext) {
	id, ok := ownDriver(ctx, c)
	if !ok {
		return
	}

	pair := c.Param("pair")
	files := make(map[string]string, 2)
	for _, side := range []string{"front", "back"} {
		fh, err := c.FormFile(side)
		if err != nil {
			response.BindError(ctx, c, err)
			return
		}
		files[pair+"-"+side] = describeFile(fh)
	}

	if err := svc.ReuploadDocuments(ctx, id, files); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, "Documents re-uploaded successfully", nil)
}

// describeFile 开发后端只记录文件名和大小
func describeFile(fh *multipart.FileHeader) string {
	return fmt.Sprintf("%s (%d bytes)", fh.Filename, fh.Size)
}
