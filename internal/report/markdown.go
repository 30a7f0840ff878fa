// Package report produces downloadable summaries of a product scenario: an HTML page
// rendered from markdown and an XLSX workbook.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"npdstudio/domain/scenario"
	"npdstudio/internal/charts"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Context carries the display names resolved for the form's selection.
type Context struct {
	CountryName  string
	CategoryName string
	Section      string
}

// Markdown writes the scenario summary: form attributes, retailer shares and the
// similar products table.
func Markdown(form scenario.ProductForm, ctx Context) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", escape(form.ScenarioName()))
	if ctx.Section != "" {
		fmt.Fprintf(&b, "Model section `%s`\n\n", ctx.Section)
	}

	b.WriteString("## Product\n\n| Attribute | Value |\n|---|---|\n")
	attrs := [][2]string{
		{"Country", firstNonEmpty(ctx.CountryName, form.Country)},
		{"Category", firstNonEmpty(ctx.CategoryName, form.Category)},
		{"Base code", form.BaseCode},
		{"Week date", form.WeekDate},
		{"Pack group", form.PackGroup},
		{"Product range", form.ProductRange},
		{"Segment", form.Segment},
		{"Super segment", form.SuperSegment},
		{"Base number in multipack", form.BaseNumberInMultipack},
		{"Flavor", form.Flavor},
		{"Choco", form.Choco},
		{"Salty", form.Salty},
		{"Level of sugar", form.LevelOfSugar},
		{"Weight per unit (ml)", formatNumber(form.WeightPerUnitMl)},
		{"List price per unit (ml)", formatNumber(form.ListPricePerUnitMl)},
	}
	for _, kv := range attrs {
		fmt.Fprintf(&b, "| %s | %s |\n", kv[0], escape(kv[1]))
	}

	b.WriteString("\n## Retailer shares\n\n")
	if shares := charts.RetailerShares(form.PredictionData); shares != nil {
		b.WriteString("| Retailer | Total | Share |\n|---|---:|---:|\n")
		for _, s := range shares {
			fmt.Fprintf(&b, "| %s | %s | %.1f%% |\n", s.Retailer, formatNumber(s.Total), s.Percent)
		}
	} else {
		b.WriteString("No prediction available.\n")
	}

	b.WriteString("\n## Similar products\n\n")
	if rows := charts.SimilarityRows(form.SimilarityData); len(rows) > 0 {
		b.WriteString("| Base code | Description | Similarity | Sell-in volume |\n|---|---|---:|---:|\n")
		for _, r := range rows {
			fmt.Fprintf(&b, "| %s | %s | %.2f | %s |\n",
				escape(r.BaseCode), escape(r.Description), r.Similarity, formatNumber(r.SellInVolume))
		}
	} else {
		b.WriteString("No similar products.\n")
	}

	return b.Bytes()
}

// HTML renders the scenario summary as a complete HTML page.
func HTML(form scenario.ProductForm, ctx Context) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: form.ScenarioName(),
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank,
	})
	return markdown.ToHTML(Markdown(form, ctx), p, renderer)
}

func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ", "\r", "").Replace(s)
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
