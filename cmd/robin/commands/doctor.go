package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cesarferreira/robin/internal/config"
	"github.com/cesarferreira/robin/internal/doctor"
	"github.com/cesarferreira/robin/internal/executor"
	"github.com/cesarferreira/robin/internal/notify"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var doctorFormat string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the tools your scripts use are installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		return runDoctor(cmd.Context(), dir, cmd.OutOrStdout(), doctorFormat, doctor.HostProbe{Timeout: 10 * time.Second}, notifier())
	},
}

var doctorUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the tools your scripts use",
	Args:  cobra.NoArgs,
	RunE:  doctorUpdate,
}

// doctorUpdateAliasCmd keeps the single-word form working.
var doctorUpdateAliasCmd = &cobra.Command{
	Use:    "doctor-update",
	Short:  doctorUpdateCmd.Short,
	Args:   cobra.NoArgs,
	Hidden: true,
	RunE:   doctorUpdate,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorFormat, "format", formatText, "Output format (text|json|yaml)")
	doctorCmd.AddCommand(doctorUpdateCmd)
}

func doctorUpdate(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	exec := executor.New(executor.Options{Dir: dir, IO: executor.IO{
		Stdin:  os.Stdin,
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}})
	return runDoctorUpdate(cmd.Context(), dir, cmd.OutOrStdout(), doctor.HostProbe{Timeout: 10 * time.Second}, exec, notifier())
}

// runDoctor checks the project in dir and prints the report.
func runDoctor(ctx context.Context, dir string, w io.Writer, format string, probe doctor.Probe, n notify.Notifier) error {
	cfg, err := config.NewStore(nil, dir).Load()
	if err != nil {
		return err
	}

	report := doctor.Run(ctx, cfg.Scripts, probe)
	if err := writeReportFormat(w, report, format); err != nil {
		return err
	}

	if report.OK() {
		notify.Send(n, "Robin Doctor", fmt.Sprintf("All %d checks passed (%s)", len(report.Checks), notify.Seconds(report.Duration)), true)
		return nil
	}
	notify.Send(n, "Robin Doctor", fmt.Sprintf("%d passed, %d failed (%s)", report.Passed(), report.Failed(), notify.Seconds(report.Duration)), false)
	return fmt.Errorf("%d of %d checks failed", report.Failed(), len(report.Checks))
}

// runDoctorUpdate runs the updates for the tools the project in dir uses.
func runDoctorUpdate(ctx context.Context, dir string, w io.Writer, probe doctor.Probe, exec executor.Executor, n notify.Notifier) error {
	cfg, err := config.NewStore(nil, dir).Load()
	if err != nil {
		return err
	}

	plan := doctor.Plan(ctx, cfg.Scripts, probe)
	if len(plan) == 0 {
		title(w, "No tools to update")
		return nil
	}

	report := doctor.Apply(ctx, plan, exec, func(u doctor.Updater) {
		title(w, "Updating %s", u.Label)
		greyText.Fprintf(w, "    %s\n", u.Line)
	})
	fmt.Fprintln(w)

	var failed []string
	for _, res := range report.Results {
		if res.OK {
			okMark.Fprint(w, "  ✓ ")
		} else {
			failMark.Fprint(w, "  ✗ ")
			failed = append(failed, res.Label)
		}
		fmt.Fprint(w, res.Label)
		if res.Detail != "" {
			greyText.Fprintf(w, "  %s", res.Detail)
		}
		fmt.Fprintln(w)
	}

	if len(failed) > 0 || ctx.Err() != nil {
		notify.Send(n, "Robin Doctor Update", "Update failed", false)
		if len(failed) == 0 {
			return ctx.Err()
		}
		return fmt.Errorf("update failed: %s", strings.Join(failed, ", "))
	}
	notify.Send(n, "Robin Doctor Update", "Tools updated in "+notify.Seconds(report.Duration), true)
	return nil
}

// writeReportFormat prints report in the given format.
func writeReportFormat(w io.Writer, report doctor.Report, format string) error {
	doc := reportDoc{
		Checks:   report.Checks,
		Passed:   report.Passed(),
		Failed:   report.Failed(),
		Duration: report.Duration.Round(time.Millisecond).String(),
	}
	if doc.Checks == nil {
		doc.Checks = []doctor.Check{}
	}

	switch strings.ToLower(format) {
	case "", formatText:
		writeReport(w, report)
		return nil
	case formatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (use text, json or yaml)", format)
	}
}

// reportDoc is the serialized form of a doctor report.
type reportDoc struct {
	Checks   []doctor.Check `json:"checks" yaml:"checks"`
	Passed   int            `json:"passed" yaml:"passed"`
	Failed   int            `json:"failed" yaml:"failed"`
	Duration string         `json:"duration" yaml:"duration"`
}

func writeReport(w io.Writer, report doctor.Report) {
	if len(report.Checks) == 0 {
		title(w, "No known tools used by your scripts")
		return
	}

	var section doctor.Section
	for _, c := range report.Checks {
		if c.Section != section {
			if section != "" {
				fmt.Fprintln(w)
			}
			section = c.Section
			title(w, "%s", section)
		}
		if c.OK {
			okMark.Fprint(w, "  ✓ ")
		} else {
			failMark.Fprint(w, "  ✗ ")
		}
		fmt.Fprint(w, c.Name)
		if c.Detail != "" {
			greyText.Fprintf(w, "  %s", c.Detail)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
	greyText.Fprintf(w, "%d passed, %d failed in %s\n", report.Passed(), report.Failed(), report.Duration.Round(time.Millisecond))
}
