package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/franckalain/ecoscan/internal/catalog"
	"github.com/franckalain/ecoscan/internal/presenter"
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// renderReport lays out an analysis result
func renderReport(vm presenter.ViewModel) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🌱 EcoScan Analysis"))
	b.WriteString("\n\n")
	b.WriteString(row("Object", valueStyle.Render(vm.ObjectName)) + "\n")
	b.WriteString(row("Material", valueStyle.Render(vm.Material)) + "\n")
	b.WriteString(row("Estimated weight", valueStyle.Render(vm.WeightText)) + "\n")
	b.WriteString(row("Carbon footprint", carbonStyle.Render(vm.FootprintText)) + "\n")

	if len(vm.Materials) > 0 {
		b.WriteString("\n" + headingStyle.Render("Detected materials") + "\n")
		for _, m := range vm.Materials {
			fmt.Fprintf(&b, "  %s %s  %s  %s\n",
				m.Icon,
				valueStyle.Render(m.Name),
				carbonStyle.Render(fmt.Sprintf("%.2f kg CO2", m.TotalCarbon)),
				dimStyle.Render(fmt.Sprintf("%.2f kg, %d%% confidence", m.Quantity, m.Confidence)),
			)
		}
	}

	b.WriteString("\n" + headingStyle.Render("Recommendation") + "\n")
	b.WriteString("  " + valueStyle.Render(vm.AltName) + "\n")
	b.WriteString("  " + dimStyle.Render(vm.AltDescription) + "\n")

	if len(vm.Alternatives) > 0 {
		b.WriteString("\n" + headingStyle.Render("Eco-friendly alternatives") + "\n")
		for _, alt := range vm.Alternatives {
			fmt.Fprintf(&b, "  %s %s  %s\n", alt.Icon, valueStyle.Render(alt.Name), dimStyle.Render(alt.Savings))
			if len(alt.Benefits) > 0 {
				b.WriteString("     " + dimStyle.Render(strings.Join(alt.Benefits, " · ")) + "\n")
			}
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// renderCatalog lists the materials known to the local detector
func renderCatalog(c *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Material catalog") + "\n\n")
	for _, m := range c.Materials() {
		fmt.Fprintf(&b, "%s %s %s\n",
			m.Icon,
			lipgloss.NewStyle().Width(12).Render(m.Name),
			carbonStyle.Render(fmt.Sprintf("%.1f kg CO2/kg", m.EmissionFactor)),
		)
		for _, alt := range c.Alternatives(m.ID) {
			fmt.Fprintf(&b, "    %s %s\n", alt.Icon, dimStyle.Render(alt.Name))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
