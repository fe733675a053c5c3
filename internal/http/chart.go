package http

import (
	"math"

	"orderboard/internal/core"
)

const chartTitle = "Total Revenue by Product Category"

// chartFigure is a Plotly figure as accepted by Plotly.newPlot.
type chartFigure struct {
	Data   []barTrace  `json:"data"`
	Layout chartLayout `json:"layout"`
}

type barTrace struct {
	Type         string    `json:"type"`
	X            []string  `json:"x"`
	Y            []*float64 `json:"y"`
	Text         []*float64 `json:"text"`
	TextTemplate string     `json:"texttemplate"`
	TextPosition string     `json:"textposition"`
}

type chartLayout struct {
	Title chartTitleText `json:"title"`
	XAxis chartAxis      `json:"xaxis"`
	YAxis chartAxis      `json:"yaxis"`
}

type chartAxis struct {
	Title chartTitleText `json:"title"`
}

type chartTitleText struct {
	Text string `json:"text"`
}

// categoryChart builds the revenue bar chart from the category summary.
func categoryChart(t core.Table) chartFigure {
	catCol := t.Index(core.ColProductCategory)
	revCol := t.Index("TotalRevenue")

	trace := barTrace{
		Type:         "bar",
		X:            []string{},
		Y:            []*float64{},
		Text:         []*float64{},
		TextTemplate: "%{text:.2f}",
		TextPosition: "outside",
	}
	if catCol >= 0 && revCol >= 0 {
		for _, row := range t.Rows {
			rev := finite(row[revCol].Num)
			trace.X = append(trace.X, row[catCol].Text)
			trace.Y = append(trace.Y, rev)
			trace.Text = append(trace.Text, rev)
		}
	}

	return chartFigure{
		Data: []barTrace{trace},
		Layout: chartLayout{
			Title: chartTitleText{Text: chartTitle},
			XAxis: chartAxis{Title: chartTitleText{Text: core.ColProductCategory}},
			YAxis: chartAxis{Title: chartTitleText{Text: "TotalRevenue"}},
		},
	}
}

// finite returns the value of n, or nil when it is missing or not a finite
// number. Plotly draws nil as a gap.
func finite(n core.NullFloat) *float64 {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return nil
	}
	v := n.Value
	return &v
}
