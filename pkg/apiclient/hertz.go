package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"

	"DriverOnboard/config"
	"DriverOnboard/internal/model"
	"DriverOnboard/internal/model/dto"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/logger"
)

// HTTPClient 基于 hertz client 的实现
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	c       *client.Client

	mu      sync.RWMutex
	headers map[string]string
}

// Option 可选配置
type Option func(*HTTPClient)

func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) { h.timeout = d }
}

// New baseURL 为空时不报错，每次调用返回 errors.BackendURLMissing
func New(baseURL string, opts ...Option) (*HTTPClient, error) {
	c, err := client.NewClient(
		client.WithDialTimeout(config.Cfg.HTTPDialTimeout),
		client.WithClientReadTimeout(config.Cfg.HTTPRequestTimeout),
		client.WithWriteTimeout(config.Cfg.HTTPRequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	h := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: config.Cfg.HTTPRequestTimeout,
		c:       c,
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.timeout <= 0 {
		h.timeout = 15 * time.Second
	}

	return h, nil
}

func (h *HTTPClient) SetBearer(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if token == "" {
		delete(h.headers, consts.HeaderAuthorization)
		return
	}
	h.headers[consts.HeaderAuthorization] = "Bearer " + token
}

func (h *HTTPClient) SetDriverHeaders(driverID, phoneNumber string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.headers[HeaderDriverID] = driverID
	h.headers[HeaderPhoneNumber] = phoneNumber
}

func (h *HTTPClient) ClearAuth() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.headers = make(map[string]string)
}

func (h *HTTPClient) Health(ctx context.Context) error {
	_, err := h.do(ctx, consts.MethodGet, PathHealth, nil, nil)
	return err
}

func (h *HTTPClient) SendOTP(ctx context.Context, phoneNumber string) error {
	_, err := h.postJSON(ctx, PathSendOTP, dto.SendOTPRequest{PhoneNumber: phoneNumber}, nil)
	return err
}

func (h *HTTPClient) VerifyOTP(ctx context.Context, phoneNumber, code string) (*dto.VerifyOTPData, error) {
	resp, err := h.postJSON(ctx, PathVerifyOTP, dto.VerifyOTPRequest{PhoneNumber: phoneNumber, Code: code}, nil)
	if err != nil {
		return nil, err
	}

	var data dto.VerifyOTPData
	if err := decodeData(PathVerifyOTP, resp, &data); err != nil {
		return nil, err
	}
	if data.DriverID == "" {
		return nil, &APIError{Path: PathVerifyOTP, StatusCode: consts.StatusOK, Message: "Missing driver id in response"}
	}
	return &data, nil
}

func (h *HTTPClient) SubmitDocuments(ctx context.Context, phoneNumber string, files map[string]string) error {
	_, err := h.do(ctx, consts.MethodPost, PathPersonalDocuments, func(req *protocol.Request) error {
		req.SetMultipartFormData(map[string]string{"phoneNumber": phoneNumber})
		for field, path := range files {
			if path == "" {
				continue
			}
			req.SetFile(field, path)
		}
		return nil
	}, nil)
	return err
}

func (h *HTTPClient) SubmitVehicleDetails(ctx context.Context, req dto.VehicleDetailsRequest) error {
	_, err := h.postJSON(ctx, PathVehicleDetails, req, nil)
	return err
}

func (h *HTTPClient) SubmitBankDetails(ctx context.Context, req dto.BankDetailsRequest) error {
	_, err := h.postJSON(ctx, PathBankDetails, req, nil)
	return err
}

func (h *HTTPClient) SubmitEmergencyDetails(ctx context.Context, req dto.EmergencyDetailsRequest) error {
	_, err := h.postJSON(ctx, PathEmergencyDetails, req, nil)
	return err
}

func (h *HTTPClient) CompleteVerification(ctx context.Context, req dto.CompleteVerificationRequest, idempotencyKey string) (*VerificationResult, error) {
	var extra map[string]string
	if idempotencyKey != "" {
		extra = map[string]string{HeaderIdempotencyKey: idempotencyKey}
	}

	resp, err := h.postJSON(ctx, PathCompleteVerification, req, extra)
	if err != nil {
		return nil, err
	}

	var data dto.CompleteVerificationData
	if err := decodeData(PathCompleteVerification, resp, &data); err != nil {
		return nil, err
	}

	return &VerificationResult{
		Profile:   resp.ProfileStatus,
		Submitted: data.Submitted,
		Message:   resp.Message,
	}, nil
}

func (h *HTTPClient) GetVerificationStatus(ctx context.Context, driverID string) (*dto.VerificationStatus, error) {
	path := fmt.Sprintf(PathVerificationStatus, url.PathEscape(driverID))
	resp, err := h.do(ctx, consts.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var status dto.VerificationStatus
	if err := decodeData(path, resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (h *HTTPClient) GetDriver(ctx context.Context, driverID string) (*dto.Driver, error) {
	var d dto.Driver
	if err := h.getData(ctx, fmt.Sprintf(PathDriver, url.PathEscape(driverID)), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (h *HTTPClient) GetVehicleDetails(ctx context.Context, driverID string) (*model.VehicleDetails, error) {
	var v model.VehicleDetails
	if err := h.getData(ctx, fmt.Sprintf(PathDriverVehicle, url.PathEscape(driverID)), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (h *HTTPClient) GetBankDetails(ctx context.Context, driverID string) (*model.BankDetails, error) {
	var b model.BankDetails
	if err := h.getData(ctx, fmt.Sprintf(PathDriverBank, url.PathEscape(driverID)), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (h *HTTPClient) GetEmergencyDetails(ctx context.Context, driverID string) (*dto.EmergencyDetailsRequest, error) {
	var e dto.EmergencyDetailsRequest
	if err := h.getData(ctx, fmt.Sprintf(PathDriverEmergency, url.PathEscape(driverID)), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (h *HTTPClient) GetDocumentStatus(ctx context.Context, driverID string) (*dto.DocumentStatus, error) {
	var st dto.DocumentStatus
	if err := h.getData(ctx, fmt.Sprintf(PathDocumentStatus, url.PathEscape(driverID)), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (h *HTTPClient) ReuploadDocument(ctx context.Context, driverID, docType, path string) error {
	if !IsDocumentType(docType) {
		return errors.NewFieldError(errors.ValidationFailed, "Unknown document type", docType)
	}
	target := fmt.Sprintf(PathReuploadDocument, url.PathEscape(driverID), docType)
	return h.upload(ctx, target, map[string]string{"document": path})
}

func (h *HTTPClient) ReuploadPair(ctx context.Context, driverID, pair, front, back string) error {
	if !IsDocumentPair(pair) {
		return errors.NewFieldError(errors.ValidationFailed, "Unknown document type", pair)
	}
	target := fmt.Sprintf(PathReuploadPair, url.PathEscape(driverID), pair)
	return h.upload(ctx, target, map[string]string{"front": front, "back": back})
}

func (h *HTTPClient) getData(ctx context.Context, path string, dest interface{}) error {
	resp, err := h.do(ctx, consts.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	return decodeData(path, resp, dest)
}

func (h *HTTPClient) upload(ctx context.Context, path string, files map[string]string) error {
	_, err := h.do(ctx, consts.MethodPost, path, func(req *protocol.Request) error {
		for field, p := range files {
			if p == "" {
				return errors.NewFieldError(errors.ValidationFailed, "", field)
			}
			req.SetFile(field, p)
		}
		return nil
	}, nil)
	return err
}

func (h *HTTPClient) postJSON(ctx context.Context, path string, body interface{}, extra map[string]string) (*dto.APIResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", path, err)
	}

	return h.do(ctx, consts.MethodPost, path, func(req *protocol.Request) error {
		req.Header.SetContentTypeBytes([]byte(consts.MIMEApplicationJSON))
		req.SetBody(raw)
		return nil
	}, extra)
}

// do 发送请求并解析统一响应，非 2xx 或 success=false 返回 *APIError
func (h *HTTPClient) do(ctx context.Context, method, path string, build func(*protocol.Request) error, extra map[string]string) (*dto.APIResponse, error) {
	if h.baseURL == "" {
		return nil, errors.BackendURLMissing
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(method)
	req.SetRequestURI(h.baseURL + path)
	req.Header.Set(consts.HeaderAccept, consts.MIMEApplicationJSON)

	h.mu.RLock()
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	h.mu.RUnlock()
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	if build != nil {
		if err := build(req); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	if err := h.c.DoTimeout(ctx, req, resp, h.timeout); err != nil {
		logger.Logger.Warn("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, networkError(path, err)
	}

	status := resp.StatusCode()
	body := resp.Body()

	logger.Logger.Debug("Backend request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)),
	)

	var out dto.APIResponse
	decodeErr := json.Unmarshal(body, &out)

	if status < 200 || status >= 300 {
		apiErr := &APIError{Path: path, StatusCode: status}
		if decodeErr == nil {
			apiErr.Message = firstNonEmpty(out.Message, out.Error)
			apiErr.Code = out.Error
		}
		return nil, apiErr
	}

	if decodeErr != nil {
		return nil, &APIError{Path: path, StatusCode: status, Message: "Invalid response from server"}
	}
	if !out.Success {
		return nil, &APIError{Path: path, StatusCode: status, Message: firstNonEmpty(out.Message, out.Error), Code: out.Error}
	}

	return &out, nil
}

func decodeData(path string, resp *dto.APIResponse, dest interface{}) error {
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Data, dest); err != nil {
		return &APIError{Path: path, StatusCode: consts.StatusOK, Message: "Invalid response from server"}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
