package reporter

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>FinOps Report - {{.Account}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: #f5f7fa;
            color: #333;
            padding: 20px;
            line-height: 1.6;
        }
        .container { max-width: 1400px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden; }
        .header { background: linear-gradient(135deg, #0f7b6c 0%, #0b4f46 100%); color: white; padding: 40px; }
        .header h1 { font-size: 2.4em; margin-bottom: 10px; }
        .summary {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(240px, 1fr));
            gap: 20px;
            padding: 30px 40px;
        }
        .card { padding: 24px; border-radius: 10px; border: 2px solid #e8eaed; }
        .card h3 { color: #5f6368; font-size: 0.8em; text-transform: uppercase; letter-spacing: 1.5px; }
        .card .value { font-size: 2.2em; font-weight: 700; }
        .card.savings { border-left: 6px solid #34a853; }
        .card.waste { border-left: 6px solid #d93025; }
        .card.spend { border-left: 6px solid #326ce5; }
        .card.compliance { border-left: 6px solid #fbbc04; }
        .section { padding: 30px 40px; }
        .section h2 { font-size: 1.6em; margin-bottom: 20px; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        th { background: #0f7b6c; color: white; padding: 12px; text-align: left; font-size: 0.85em; text-transform: uppercase; }
        td { padding: 12px; border-bottom: 1px solid #f0f2f4; }
        td.num { text-align: right; font-variant-numeric: tabular-nums; }
        .badge { padding: 4px 10px; border-radius: 6px; font-size: 0.75em; font-weight: 700; text-transform: uppercase; }
        .risk-low, .level-low { background: #e6f4ea; color: #1e8e3e; }
        .risk-medium, .level-medium { background: #fef7e0; color: #f9ab00; }
        .risk-high, .level-high { background: #fce8e6; color: #d93025; }
        .level-critical { background: #d93025; color: white; }
        .footer { background: #202124; color: #9aa0a6; padding: 24px; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h1>Cloud FinOps Report</h1>
        <p><strong>Account:</strong> {{.Account}} | <strong>As of:</strong> {{.Result.Metadata.AsOf.Format "2006-01-02"}}</p>
        <p><strong>Generated:</strong> {{.GeneratedAt.Format "January 2, 2006 15:04:05 MST"}}</p>
    </div>

    <div class="summary">
        <div class="card spend"><h3>Monthly Spend</h3><div class="value">{{money .CurrentMonthlySpend}}</div></div>
        <div class="card waste"><h3>Identified Waste</h3><div class="value">{{money .TotalWaste}}</div></div>
        <div class="card savings"><h3>Savings Potential</h3><div class="value">{{money .TotalSavings}}</div><p>{{money .AnnualSavings}} / year</p></div>
        <div class="card compliance"><h3>Tag Compliance</h3><div class="value">{{printf "%.1f" .Result.Compliance.Percentage}}%</div></div>
    </div>

    {{if .Result.Recommendations}}
    <div class="section">
        <h2>Recommendations</h2>
        <table>
            <thead><tr><th>#</th><th>Resource</th><th>Action</th><th>Change</th><th>Savings/Month</th><th>Risk</th><th>Reason</th></tr></thead>
            <tbody>
            {{range .Result.Recommendations}}
            <tr>
                <td>{{.Rank}}</td>
                <td><strong>{{.ResourceID}}</strong></td>
                <td>{{.Action}}</td>
                <td>{{if .TargetClass}}{{.CurrentClass}} → {{.TargetClass}}{{end}}</td>
                <td class="num">{{money .MonthlySavings}}</td>
                <td><span class="badge risk-{{lower .Risk}}">{{.Risk}}</span></td>
                <td>{{.Reason}}</td>
            </tr>
            {{end}}
            </tbody>
        </table>
    </div>
    {{end}}

    {{if .Result.Findings}}
    <div class="section">
        <h2>Waste Findings</h2>
        <table>
            <thead><tr><th>Resource</th><th>Category</th><th>Monthly Waste</th><th>Confidence</th><th>Detail</th></tr></thead>
            <tbody>
            {{range .Result.Findings}}
            <tr>
                <td>{{.ResourceID}}</td>
                <td>{{.Category}}</td>
                <td class="num">{{money .MonthlyWaste}}</td>
                <td class="num">{{pct .Confidence}}</td>
                <td>{{.Detail}}</td>
            </tr>
            {{end}}
            </tbody>
        </table>
    </div>
    {{end}}

    {{if .Scenarios}}
    <div class="section">
        <h2>Forecast</h2>
        <table>
            <thead><tr><th>Scenario</th><th>Month 3</th><th>Month 6</th><th>Month 12</th><th>Year Total</th></tr></thead>
            <tbody>
            {{range .Scenarios}}
            <tr>
                <td>{{.Scenario}}</td>
                <td class="num">{{money .Month3}}</td>
                <td class="num">{{money .Month6}}</td>
                <td class="num">{{money .Month12}}</td>
                <td class="num">{{money .YearTotal}}</td>
            </tr>
            {{end}}
            </tbody>
        </table>
    </div>
    {{end}}

    {{if .Result.Anomalies}}
    <div class="section">
        <h2>Spend Anomalies</h2>
        <table>
            <thead><tr><th>Period</th><th>Scope</th><th>Observed</th><th>Expected</th><th>Level</th></tr></thead>
            <tbody>
            {{range .Result.Anomalies}}
            <tr>
                <td>{{.Period.Start.Format "2006-01-02"}}</td>
                <td>{{.Scope}}</td>
                <td class="num">{{money .Observed}}</td>
                <td class="num">{{money .Expected}}</td>
                <td><span class="badge level-{{lower .Level}}">{{.Level}}</span></td>
            </tr>
            {{end}}
            </tbody>
        </table>
    </div>
    {{end}}

    {{if .Result.Alerts}}
    <div class="section">
        <h2>Budget Alerts</h2>
        <table>
            <thead><tr><th>Budget</th><th>Scope</th><th>Period</th><th>Level</th><th>Spend to Date</th><th>Limit</th></tr></thead>
            <tbody>
            {{range .Result.Alerts}}
            <tr>
                <td>{{.Budget}}</td>
                <td>{{.Scope}}</td>
                <td>{{.Period}}</td>
                <td>{{.Level}}</td>
                <td class="num">{{money .Observed}}</td>
                <td class="num">{{money .Limit}}</td>
            </tr>
            {{end}}
            </tbody>
        </table>
    </div>
    {{end}}

    <div class="footer">
        <p>Run {{.Result.Metadata.RunID}} · generated by <strong>finops-engine</strong></p>
    </div>
</div>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"lower": func(s interface{}) string {
		return strings.ToLower(fmt.Sprintf("%v", s))
	},
	"money": Money,
	"pct": func(v float64) string {
		return fmt.Sprintf("%.0f%%", v*100)
	},
}).Parse(htmlTemplate))

// GenerateHTML creates an HTML report
func GenerateHTML(report *Report, writer io.Writer) error {
	if err := reportTemplate.Execute(writer, report); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}
