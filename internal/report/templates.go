package report

const templates = `
{{define "header"}}# {{.Title}}

- Source: ` + "`{{.Source}}`" + `
- Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}
{{end}}

{{define "matches"}}| Color | Expected | Pixels | % of Image | Status |
|---|---|---:|---:|---|
{{range .Matches}}| {{.Name}} | ` + "`{{.Hex}}`" + ` | {{num .Count}} | {{pct .Percentage}} | {{if .Found}}FOUND{{else}}NOT FOUND{{end}} |
{{end}}{{end}}

{{define "unexpected"}}{{if .Unexpected}}| Hex | RGB | Pixels | % of Image |
|---|---|---:|---:|
{{range .Unexpected}}| ` + "`{{.Hex}}`" + ` | {{.RGB}} | {{num .Count}} | {{pct .Percentage}} |
{{end}}{{else}}No unexpected colors.
{{end}}{{end}}

{{define "breakdown"}}| Pixels | Count | Share |
|---|---:|---:|
| Total | {{num .TotalPixels}} | 100.00% |
| Palette matches | {{num .MatchedPixels}} | {{pct .MatchedShare}} |
| Unexpected | {{num .UnexpectedPixels}} | {{pct .UnexpectedShare}} |
| Colored (not excluded) | {{num .ColoredPixels}} | {{pct .ColoredShare}} |
| Near-white | {{num .Excluded.White}} | {{share .Excluded.White .TotalPixels}} |
| Near-black | {{num .Excluded.Black}} | {{share .Excluded.Black .TotalPixels}} |
| Neutral | {{num .Excluded.Neutral}} | {{share .Excluded.Neutral .TotalPixels}} |

Image {{.Width}}x{{.Height}}, tolerance {{.Options.Tolerance}}, neutral threshold {{.Options.NeutralThreshold}}.
{{end}}

{{define "classification"}}{{template "header" .}}
## Palette Matches

{{template "matches" .Result}}
## Top {{.Result.Options.TopN}} Unexpected Colors

{{template "unexpected" .Result}}
## Pixel Breakdown

{{template "breakdown" .Result}}{{end}}

{{define "verification"}}{{template "header" .}}
## Verdict

**{{verdictLine .Verification.Verdict}}**

Brand colors cover {{num .Verification.Brand.MatchedPixels}} pixels ({{pct1 .Verification.BrandShare}}).
{{if .Verification.BrandColorsUsed}}Brand colors ARE being used in the app.{{else}}Brand colors NOT found, colors may be wrong.{{end}}

## Expected Brand Colors

{{template "matches" .Verification.Brand}}
## Top {{.Verification.Brand.Options.TopN}} Unexpected Colors

{{template "unexpected" .Verification.Brand}}{{if .Verification.Wrong}}
## Wrong Colors

{{template "matches" .Verification.Wrong}}{{end}}
## Pixel Breakdown

{{template "breakdown" .Verification.Brand}}{{end}}

{{define "extraction"}}{{template "header" .}}
## Extracted Palette

{{if .Extraction.Colors}}| # | Name | Hex | RGB | % | Merged |
|---:|---|---|---|---:|---:|
{{range $i, $c := .Extraction.Colors}}| {{inc $i}} | {{$c.Name}} | ` + "`{{$c.Hex}}`" + ` | {{$c.RGB}} | {{pct1 $c.Percentage}} | {{$c.Members}} |
{{end}}
## Flutter Color Constants

` + "```dart" + `
{{range .Extraction.FlutterConstants}}{{.}}
{{end}}` + "```" + `
{{else}}No dominant colors found (image is blank or only black/white).
{{end}}{{end}}

{{define "content"}}{{template "header" .}}
## Content Check

| Metric | Value |
|---|---:|
| Size | {{.Content.Width}}x{{.Content.Height}} |
| Sampled pixels | {{num .Content.SampledPixels}} |
| White samples | {{num .Content.WhitePixels}} ({{pct1 .Content.WhiteShare}}) |
| Luminance mean | {{printf "%.1f" .Content.LuminanceMean}} |
| Luminance stdev | {{printf "%.1f" .Content.LuminanceStdev}} |

{{if .Content.HasContent}}Content: YES{{else}}Content: BLANK/WHITE{{end}}
{{end}}
`
