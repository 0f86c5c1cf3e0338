package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"DriverOnboard/internal/draft"
	"DriverOnboard/internal/model"
	"DriverOnboard/pkg/errors"
)

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Reconcile and show section completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			// 对账失败已经提示过，这里继续展示本地记录
			rec, _ := a.ob.Sections.Status(cmd.Context())
			a.print(rec, describeRecord(rec))
			return nil
		},
	}
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <section>",
		Short: "Print the saved draft of a section as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := parseSection(args[0])
			if err != nil {
				return err
			}
			d, err := a.ob.Sections.Load(cmd.Context(), section)
			if err != nil {
				return err
			}
			text, err := yaml.Marshal(d)
			if err != nil {
				return err
			}
			a.print(d, string(text))
			return nil
		},
	}
}

func draftsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drafts",
		Short: "Print every saved draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := a.ob.Sections.LoadAll(cmd.Context())
			if err != nil {
				return err
			}
			text, err := yaml.Marshal(all)
			if err != nil {
				return err
			}
			a.print(all, string(text))
			return nil
		},
	}
}

func saveCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save <section> -f draft.yaml",
		Short: "Validate, save and submit a section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := parseSection(args[0])
			if err != nil {
				return err
			}
			d, _ := draft.NewDraft(section)
			if err := readYAML(file, d); err != nil {
				return err
			}

			rec, err := a.ob.Sections.Save(cmd.Context(), section, d)
			if err != nil {
				return err
			}
			a.print(rec, fmt.Sprintf("%s saved\n%s", section.Title(), describeRecord(rec)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "YAML file with the section fields, - for stdin")
	return cmd
}

func submitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "submit",
		Short: "Submit the registration once every section is complete",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.ob.Gate.Submit(cmd.Context())
			if err != nil {
				return err
			}
			text := st.Message
			if text == "" {
				text = string(st.Next)
			}
			a.print(st, text)
			return nil
		},
	}
}

func driverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "driver",
		Short: "Print the profile stored on the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.ob.Sections.Driver(cmd.Context())
			if err != nil {
				return err
			}
			text, err := yaml.Marshal(d)
			if err != nil {
				return err
			}
			a.print(d, string(text))
			return nil
		},
	}
}

func reuploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reupload <type> <file>",
		Short: "Re-upload one document side, e.g. pan-back",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.ob.Sections.Reupload(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			a.print(rec, fmt.Sprintf("%s re-uploaded\n%s", args[0], describeRecord(rec)))
			return nil
		},
	}
}

func reuploadPairCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reupload-pair <aadhaar|pan|license> <front> <back>",
		Short: "Re-upload both sides of a document",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.ob.Sections.ReuploadPair(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			a.print(rec, fmt.Sprintf("%s re-uploaded\n%s", args[0], describeRecord(rec)))
			return nil
		},
	}
}

func readYAML(path string, dest interface{}) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	if err := yaml.NewDecoder(r).Decode(dest); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func parseSection(name string) (model.Section, error) {
	section, ok := model.ParseSection(name)
	if !ok {
		return "", errors.NewFieldError(errors.UnknownSection, "", name)
	}
	return section, nil
}
