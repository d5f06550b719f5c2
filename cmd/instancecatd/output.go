package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"instancecat/internal/app"
	"instancecat/internal/domain"
	"instancecat/internal/infra/service"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var (
	colorBlue = lipgloss.Color("#3b82f6")
	colorDim  = lipgloss.Color("#6b7280")
	colorRed  = lipgloss.Color("#ef4444")
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	failStyle   = lipgloss.NewStyle().Foreground(colorRed)
)

const instanceRowFormat = "%-24s %-28s %10s %6s %4s\n"

// writeOutput encodes value as JSON or YAML, or calls table for the human
// readable form.
func writeOutput(w io.Writer, format string, value any, table func(*printer)) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case outputJSON:
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	case outputTable, "":
		p := &printer{w: w}
		table(p)
		return p.err
	default:
		return exitError{code: exitCodeConfig, message: fmt.Sprintf("unsupported output format %q", format)}
	}
}

// printer keeps the first write error so table renderers stay linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) {
	p.printf("%s\n", s)
}

func (p *printer) instanceTypes(records []domain.InstanceType) {
	p.line(headerStyle.Render(strings.TrimRight(fmt.Sprintf(instanceRowFormat, "NAME", "FAMILY", "MEMORY", "VCPU", "GPU"), "\n")))
	for _, record := range records {
		p.printf(instanceRowFormat,
			record.Name,
			record.Family,
			humanize.IBytes(uint64(record.Memory)),
			fmt.Sprint(record.VCPU),
			fmt.Sprint(record.GPU),
		)
	}
	p.line(dimStyle.Render(fmt.Sprintf("%s instance types", humanize.Comma(int64(len(records))))))
}

func (p *printer) nodeGroups(groups []domain.NodeGroup) {
	p.line(headerStyle.Render(fmt.Sprintf("%-24s %-20s %10s %6s %4s", "NODEGROUP", "INSTANCE TYPE", "MEMORY", "VCPU", "GPU")))
	for _, group := range groups {
		name := "-"
		if group.InstanceName != nil {
			name = *group.InstanceName
		}
		memory, vcpu, gpu := "-", "-", "-"
		if group.InstanceType != nil {
			memory = humanize.IBytes(uint64(group.InstanceType.Memory))
			vcpu = fmt.Sprint(group.InstanceType.VCPU)
			gpu = fmt.Sprint(group.InstanceType.GPU)
		}
		p.printf("%-24s %-20s %10s %6s %4s\n", group.Name, name, memory, vcpu, gpu)
	}
}

func (p *printer) refreshResult(result domain.RefreshResult) {
	outcome := string(result.Outcome)
	if result.Outcome == domain.OutcomeFailed {
		outcome = failStyle.Render(outcome)
	}
	p.printf("%s %s\n", headerStyle.Render("refresh"), outcome)
	p.printf("  source:    %s\n", result.Source)
	p.printf("  version:   %s\n", result.Version)
	p.printf("  records:   %s\n", humanize.Comma(int64(result.Count())))
	if result.Outcome == domain.OutcomeApplied {
		p.printf("  upserted:  %d  unchanged: %d  deleted: %d\n",
			result.Store.Upserted, result.Store.Unchanged, result.Store.Deleted)
		p.printf("  discarded: %d of %d entries\n", result.Parse.Discarded(), result.Parse.Entries)
		p.printf("  digest:    %s\n", result.Digest)
	}
	p.line(dimStyle.Render(fmt.Sprintf("  cycle %s took %s", result.CycleID, result.Duration)))
}

func (p *printer) documentReport(report app.DocumentReport) {
	stats := report.Stats
	p.printf("%s %s\n", headerStyle.Render("pricing document"), report.Version)
	p.printf("  source:   %s\n", report.Source)
	p.printf("  entries:  %s\n", humanize.Comma(int64(stats.Entries)))
	p.printf("  kept:     %s\n", humanize.Comma(int64(report.Records)))
	p.line(dimStyle.Render(fmt.Sprintf(
		"  dropped: not linux %d, no name %d, bad memory %d, bad vcpu %d, duplicate %d, malformed %d",
		stats.NotLinux, stats.MissingName, stats.InvalidMemory, stats.InvalidVCPU, stats.Duplicates, stats.MalformedEntry,
	)))
}

func (p *printer) serviceStatus(status service.Status) {
	state := "stopped"
	switch {
	case !status.Installed:
		state = "not installed"
	case status.Running:
		state = "running"
	}
	p.printf("%s %s\n", headerStyle.Render(status.Unit), state)
	if status.ConfigPath != "" {
		p.printf("  config: %s\n", status.ConfigPath)
	}
	if status.StoresPath != "" {
		p.printf("  stores: %s\n", status.StoresPath)
	}
	if status.ListenAddress != "" {
		p.printf("  listen: %s\n", status.ListenAddress)
	}
}
