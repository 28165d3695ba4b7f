package health

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// RenderDashboardHTML returns the status page served at GET /.
func RenderDashboardHTML(h CollectResult) string {
	headline := "All Systems Operational"
	headClass := "ok"
	if h.Status != "ok" {
		headline = "System Issues Detected"
		headClass = "err"
	}

	names := make([]string, 0, len(h.Dependencies))
	for name := range h.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	var deps strings.Builder
	for _, name := range names {
		d := h.Dependencies[name]
		class := "err"
		if d.Status == "connected" || d.Status == "reachable" {
			class = "ok"
		}
		ping := "--"
		if d.PingMs != nil {
			ping = fmt.Sprint(*d.PingMs)
		}
		fmt.Fprintf(&deps, `<div class="row"><span>%s</span><span class="pill %s">%s · %s ms</span></div>`,
			html.EscapeString(name), class, html.EscapeString(d.Status), ping)
	}

	last := "-"
	if m, ok := h.Traffic.LastRequest.(map[string]interface{}); ok {
		last = fmt.Sprintf("%v %v from %v", m["method"], m["path"], m["ip"])
	}

	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>TradeRiser · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <meta http-equiv="refresh" content="30">
  <style>
    :root { --green: #00c853; --dark: #0b1220; --panel: #131c2e; --muted: #8892a6; --red: #ff5252; }
    body { background: var(--dark); color: #e6ebf5; font-family: 'Segoe UI', sans-serif; margin: 0; padding: 40px 20px; }
    .container { max-width: 960px; margin: 0 auto; }
    h1 { font-size: 44px; margin: 0 0 8px; letter-spacing: -2px; }
    h1.ok { color: var(--green); } h1.err { color: var(--red); }
    .sub { color: var(--muted); font-weight: 600; margin-bottom: 30px; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 20px; }
    .card { background: var(--panel); border-radius: 18px; padding: 28px; }
    .label { text-transform: uppercase; font-size: 11px; letter-spacing: 2px; color: var(--muted); margin-bottom: 16px; font-weight: 800; }
    .big { font-size: 36px; font-weight: 800; margin-bottom: 10px; }
    .row { display: flex; justify-content: space-between; padding: 7px 0; border-bottom: 1px solid rgba(255,255,255,0.05); font-size: 14px; }
    .pill { font-size: 11px; font-weight: 800; padding: 3px 10px; border-radius: 8px; }
    .pill.ok { background: rgba(0,200,83,0.12); color: var(--green); } .pill.err { background: rgba(255,82,82,0.12); color: var(--red); }
    .footer { margin-top: 24px; font-family: monospace; color: var(--muted); display: flex; justify-content: space-between; }
    a { color: var(--green); }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } }
  </style>
</head>
<body>
  <div class="container">
    <h1 class="` + headClass + `">` + headline + `</h1>
    <div class="sub">TradeRiser paper-trading API · ` + html.EscapeString(h.Runtime.Platform) + ` · ` + h.Runtime.GoVersion + `</div>
    <div class="grid">
      <div class="card">
        <div class="label">Traffic</div>
        <div class="big">` + fmt.Sprint(h.Traffic.TotalRequests) + `</div>
        <div class="row"><span>Successful</span><span>` + fmt.Sprint(h.Traffic.SuccessCount) + `</span></div>
        <div class="row"><span>Failed</span><span>` + fmt.Sprint(h.Traffic.FailedCount) + `</span></div>
        <div class="row"><span>Success Rate</span><span>` + h.Traffic.SuccessRate + `%</span></div>
        <div class="row"><span>Avg Latency</span><span>` + fmt.Sprint(h.Traffic.AvgResponseTime) + `ms</span></div>
      </div>
      <div class="card">
        <div class="label">Runtime</div>
        <div class="big">` + formatUptime(h.Runtime.UptimeSeconds) + `</div>
        <div class="row"><span>Heap Used</span><span>` + fmt.Sprint(h.Runtime.Memory.HeapUsed) + ` MB</span></div>
        <div class="row"><span>Allocated</span><span>` + fmt.Sprint(h.Runtime.Memory.Alloc) + ` MB</span></div>
        <div class="row"><span>Goroutines</span><span>` + fmt.Sprint(h.Runtime.Goroutines) + `</span></div>
      </div>
      <div class="card">
        <div class="label">Dependencies</div>
        ` + deps.String() + `
      </div>
    </div>
    <div class="footer">
      <span>LAST INBOUND ` + html.EscapeString(last) + `</span>
      <span><a href="/health/json">json</a> · <a href="/health/errors">error log</a></span>
    </div>
  </div>
</body>
</html>`
}

func formatUptime(s int64) string {
	d := s / 86400
	h := (s % 86400) / 3600
	m := (s % 3600) / 60
	if d > 0 {
		return fmt.Sprintf("%dd %dh %dm", d, h, m)
	}
	return fmt.Sprintf("%dh %dm %ds", h, m, s%60)
}
