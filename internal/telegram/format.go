package telegram

import (
	"fmt"
	"strings"

	"elior-fitness/internal/backend"
	"elior-fitness/internal/metrics"
	"elior-fitness/internal/nutrition"
	"elior-fitness/internal/planner"
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func formatPlanSummaryMarkdown(plan nutrition.MealPlan, submitted *backend.SubmittedPlan, summary *planner.Summary) string {
	var sb strings.Builder
	sb.WriteString("📋 *Meal Plan Submitted*\n\n")
	fmt.Fprintf(&sb, "*Plan:* %s\n", escapeMarkdown(plan.Name))
	if submitted != nil && submitted.ID != 0 {
		fmt.Fprintf(&sb, "*ID:* %d\n", submitted.ID)
	}
	fmt.Fprintf(&sb, "*Client:* %d\n", plan.ClientID)
	fmt.Fprintf(&sb, "*Meals:* %d\n\n", len(plan.MealSlots))

	for _, m := range summary.Meals {
		fmt.Fprintf(&sb, "*%s*: %s\n", escapeMarkdown(m.Name), m.Totals)
	}

	sb.WriteString("\n🎯 *Plan Total*\n")
	fmt.Fprintf(&sb, "• Calories: %s\n", summary.Budget.Calories)
	fmt.Fprintf(&sb, "• Protein: %s\n", summary.Budget.Protein)
	fmt.Fprintf(&sb, "• Carbs: %s\n", summary.Budget.Carbs)
	fmt.Fprintf(&sb, "• Fat: %s\n", summary.Budget.Fat)
	return sb.String()
}

func formatBankMarkdown(macro nutrition.MacroType, items []backend.MealBankItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏦 *Meal Bank: %s*\n\n", macro)
	if len(items) == 0 {
		sb.WriteString("_No foods yet_\n")
	}
	for _, item := range items {
		sb.WriteString(formatBankItem(item))
	}
	return sb.String()
}

func formatBankItem(item backend.MealBankItem) string {
	opt := item.ToFoodOption()
	opt.ServingSize = ""
	totals := nutrition.OptionTotals(opt, "100")
	line := fmt.Sprintf("• *%s*: %s per 100g", escapeMarkdown(item.Name), totals)
	if serving := nutrition.NormalizeServingSize(item.ServingSize); serving != "" {
		line += fmt.Sprintf(" (serving %sg)", serving)
	}
	return line + "\n"
}

func formatMetricsMarkdown(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d calls (%d failed), %d tokens, avg %dms\n",
			d.Date, d.TotalCalls, d.FailedCalls, d.TotalPrompt+d.TotalCompletion, d.AvgLatencyMS)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}
