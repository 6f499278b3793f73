package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

type clientOptions struct {
	baseURL string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &clientOptions{}

	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Client for the budget analysis service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "server", envOr("BUDGETCTL_SERVER", "http://localhost:8080"), "base URL of the analyzerd daemon")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "HTTP request timeout")

	root.AddCommand(newSubmitCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newDeleteCmd(opts))
	return root
}

func newSubmitCmd(opts *clientOptions) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "submit <file.pdf> [more.pdf ...]",
		Short: "Submit one or more PDFs for analysis",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, field := "/api/budget-analysis/pdf", "file"
			if len(args) > 1 {
				endpoint, field = "/api/budget-analysis/pdf/multiple", "files"
			}

			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				fw, err := mw.CreateFormFile(field, filepath.Base(path))
				if err == nil {
					_, err = io.Copy(fw, f)
				}
				_ = f.Close()
				if err != nil {
					return err
				}
			}
			if err := mw.Close(); err != nil {
				return err
			}

			resp, err := httpClient(opts).Post(opts.baseURL+endpoint, mw.FormDataContentType(), &buf)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusAccepted {
				return fmt.Errorf("submit failed (%d): %s", resp.StatusCode, body)
			}

			var sub struct {
				JobID string `json:"job_id"`
			}
			if err := json.Unmarshal(body, &sub); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sub.JobID)

			if wait {
				return pollUntilDone(cmd, opts, sub.JobID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the job finishes and print the result")
	return cmd
}

func newStatusCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status (and result, when completed) of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, opts, "/api/budget-analysis/pdf/"+args[0])
		},
	}
}

func newExportCmd(opts *clientOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <job-id>",
		Short: "Download the XLSX report of a completed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := httpClient(opts).Get(opts.baseURL + "/api/budget-analysis/pdf/" + args[0] + "/export")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("export failed (%d): %s", resp.StatusCode, body)
			}

			if output == "" {
				output = "analisis-" + args[0] + ".xlsx"
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			_, err = io.Copy(f, resp.Body)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default analisis-<job-id>.xlsx)")
	return cmd
}

func newDeleteCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a job, its stored result and temporary files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := http.NewRequest(http.MethodDelete, opts.baseURL+"/api/budget-analysis/pdf/"+args[0], nil)
			if err != nil {
				return err
			}
			resp, err := httpClient(opts).Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusNoContent {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("delete failed (%d): %s", resp.StatusCode, body)
			}
			return nil
		},
	}
}

func pollUntilDone(cmd *cobra.Command, opts *clientOptions, jobID string) error {
	for {
		resp, err := httpClient(opts).Get(opts.baseURL + "/api/budget-analysis/pdf/" + jobID)
		if err != nil {
			return err
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		var job struct {
			Status   string `json:"status"`
			Progress int    `json:"progress"`
			Message  string `json:"message"`
		}
		if err := json.Unmarshal(body, &job); err != nil {
			return err
		}
		switch job.Status {
		case "completed":
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, body, "", "  "); err == nil {
				body = pretty.Bytes()
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		case "error":
			return fmt.Errorf("analysis failed: %s", job.Message)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "processing %d%% %s\n", job.Progress, job.Message)
		time.Sleep(2 * time.Second)
	}
}

func printJSON(cmd *cobra.Command, opts *clientOptions, path string) error {
	resp, err := httpClient(opts).Get(opts.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed (%d): %s", resp.StatusCode, body)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err == nil {
		body = pretty.Bytes()
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return nil
}

func httpClient(opts *clientOptions) *http.Client {
	return &http.Client{Timeout: opts.timeout}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
