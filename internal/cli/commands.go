package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"symptom-triage/internal/consultation"
	"symptom-triage/internal/knowledge"
	"symptom-triage/internal/report"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return opts.withApp(ctx, func(a *app) error {
				return a.httpServer().Run(ctx)
			})
		},
	}
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		lang   string
		user   string
		asHTML bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "ask <text>",
		Short: "Triage one message and log it",
		Example: `  triage ask "I have a headache and a fever"
  triage ask --lang ar --user 42 "chest pain"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := strings.Join(args, " ")
			return opts.withApp(cmd.Context(), func(a *app) error {
				resp, err := a.consultation.Handle(cmd.Context(), consultation.Request{
					Message:  &msg,
					Language: lang,
					UserID:   user,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				switch {
				case asJSON:
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(resp)
				case asHTML:
					printf(out, "%s\n", resp.Response)
				default:
					for _, p := range report.PlainText(resp.Response) {
						printf(out, "%s\n", p)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "en", "response language (en or ar)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id the exchange is logged under")
	cmd.Flags().BoolVar(&asHTML, "html", false, "print the response markup")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response as JSON")
	cmd.MarkFlagsMutuallyExclusive("html", "json")
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		user    string
		limit   int
		pdfPath string
		send    bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a user's logged exchanges, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				ctx := cmd.Context()
				records, err := a.consultation.History(ctx, user, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					printf(out, "no history\n")
				}
				for _, r := range records {
					printf(out, "#%d  %s  [%s]  %q\n", r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), r.Language, r.UserInput)
					if len(r.Symptoms) > 0 {
						printf(out, "    symptoms: %s\n", strings.Join(r.Symptoms, ", "))
					}
				}

				if pdfPath != "" {
					doc, err := a.reports.HistoryPDF(displayUser(user), records)
					if err != nil {
						return err
					}
					if err := os.WriteFile(pdfPath, doc, 0o644); err != nil {
						return fmt.Errorf("write pdf: %w", err)
					}
					printf(out, "wrote %s\n", pdfPath)
				}
				if send {
					if err := a.reports.SendHistory(ctx, displayUser(user), records); err != nil {
						return err
					}
					printf(out, "sent to telegram\n")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id (default anonymous)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of records, 0 for all")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "also write the listed records to this PDF file")
	cmd.Flags().BoolVar(&send, "send", false, "send the listed records to the doctor chat as PDF")
	return cmd
}

func displayUser(user string) string {
	if user == "" {
		return consultation.AnonymousUser
	}
	return user
}

func newSymptomsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "symptoms",
		Short: "List the symptoms the knowledge base recognizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			kb := knowledge.Default()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			printf(tw, "SYMPTOM\tWEIGHT\tCONDITIONS\n")
			for _, key := range kb.Symptoms() {
				s, _ := kb.Symptom(key)
				printf(tw, "%s\t%d\t%s\n", s.Key, s.Weight, strings.Join(s.Conditions, ", "))
			}
			return tw.Flush()
		},
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := opts.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}
