package commands

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/evaldash/internal/cli/output"
	"github.com/leapstack-labs/evaldash/internal/engine"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, markdown, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the configuration, the data and every page",
		Long: `Check that evaldash is ready to serve the dashboard.

The doctor validates the configuration, loads every sheet, and renders every
option of every page, then reports:
- Checks grouped by category (config, data, render)
- A health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  evaldash doctor

  # Output as JSON
  evaldash doctor --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	HealthChecks    []HealthCheck `json:"health_checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
	IssueCount      int           `json:"issue_count"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func newCheck(id, name, group string, status string, details ...string) HealthCheck {
	c := HealthCheck{RuleID: id, Name: name, Group: group, Status: status, Details: details}
	if status != "pass" {
		c.IssueCount = len(details)
		if c.IssueCount == 0 {
			c.IssueCount = 1
		}
	}
	return c
}

func statusFor(details []string, failing string) string {
	if len(details) == 0 {
		return "pass"
	}
	return failing
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	checks := runChecks(cmd, cmdCtx)
	doctorOutput := buildDoctorOutput(checks)

	// Render based on mode
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(doctorOutput)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, doctorOutput)
	default:
		return renderDoctorText(r, doctorOutput)
	}
}

// runChecks runs the checks in order; each stage needs the previous one to pass.
func runChecks(cmd *cobra.Command, cmdCtx *CommandContext) []HealthCheck {
	ctx := cmd.Context()
	cfg := cmdCtx.Cfg

	var problems []string
	if err := cfg.Validate(); err != nil {
		problems = append(problems, strings.Split(err.Error(), "\n")...)
	}
	if err := cfg.ValidateDirectories(); err != nil {
		problems = append(problems, strings.SplitN(err.Error(), "\n", 2)[0])
	}
	checks := []HealthCheck{newCheck("CF01", "configuration is valid", "config", statusFor(problems, "error"), problems...)}
	if len(problems) > 0 {
		return checks
	}

	eng, err := createEngine(ctx, cfg, cmdCtx.Logger)
	if err != nil {
		return append(checks, newCheck("DS01", "sheets load", "data", "error", err.Error()))
	}
	defer func() { _ = eng.Close() }()

	tables, err := eng.Tables(ctx)
	if err != nil {
		return append(checks, newCheck("DS01", "sheets load", "data", "error", err.Error()))
	}
	checks = append(checks, newCheck("DS01", "sheets load", "data", "pass"))

	var empty []string
	for _, t := range tables {
		if t.RowCount == 0 {
			empty = append(empty, t.Name)
		}
	}
	checks = append(checks, newCheck("DS02", "sheets have rows", "data", statusFor(empty, "warn"), empty...))

	return append(checks, renderChecks(cmd, eng)...)
}

func renderChecks(cmd *cobra.Command, eng *engine.Engine) []HealthCheck {
	var failed, blank []string
	for _, p := range eng.Pages() {
		for _, o := range p.Options {
			sections, err := eng.Render(cmd.Context(), p.Slug, o.Name)
			switch {
			case err != nil:
				failed = append(failed, fmt.Sprintf("%s / %s: %v", p.Slug, o.Name, err))
			case len(sections) == 0:
				blank = append(blank, fmt.Sprintf("%s / %s", p.Slug, o.Name))
			}
		}
	}
	return []HealthCheck{
		newCheck("RN01", "every option renders", "render", statusFor(failed, "error"), failed...),
		newCheck("RN02", "every option shows a chart", "render", statusFor(blank, "warn"), blank...),
	}
}

func buildDoctorOutput(checks []HealthCheck) *DoctorOutput {
	out := &DoctorOutput{
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
	}
	for _, c := range checks {
		out.IssueCount += c.IssueCount
	}
	return out
}

func calculateHealthScore(checks []HealthCheck) int {
	// Base score starts at 100
	score := 100
	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= check.IssueCount * 20
		case "warn":
			score -= check.IssueCount * 5
		}
	}

	// Clamp to 0-100
	if score < 0 {
		score = 0
	}
	return score
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}
		if rec := getRecommendation(check.RuleID); rec != "" {
			recommendations = append(recommendations, rec)
		}
	}
	return recommendations
}

// getRecommendation returns a recommendation for a specific check.
func getRecommendation(ruleID string) string {
	switch ruleID {
	case "CF01":
		return "Fix evaldash.yaml (or the EVALDASH_ variables) and run the doctor again"
	case "DS01":
		return "Check the Drive credentials and sheet keys, or point --data-dir at local copies"
	case "DS02":
		return "Fill the empty sheets or check that the configured worksheet name is right"
	case "RN01":
		return "Compare the failing queries with the sheet columns (evaldash query schema <sheet>)"
	case "RN02":
		return "Options without charts have no matching rows; check the filters of their queries"
	default:
		return ""
	}
}

func statusLabel(status string) string {
	switch status {
	case "warn":
		return "WARN"
	case "error":
		return "ERROR"
	default:
		return "PASS"
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	// Header
	r.Println("")
	r.Println(styles.Header.Render("evaldash Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.Success.Render("✓")
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.Error.Render("✗")
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		// Show first 3 details for issues
		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	// Health Score
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	// Recommendations
	if len(out.Recommendations) > 0 {
		r.Println(styles.Bold.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# evaldash Health Report")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("## " + titleCaser.String(currentGroup))
			r.Println("")
		}

		r.Printf("- **[%s]** %s: %s", statusLabel(check.Status), check.RuleID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println(output.FormatKeyValue("Health Score", fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
	}

	return nil
}
