package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// chartHandler serves a self-contained page that draws the series as a
// line chart. The start offset is forwarded to the series API via the
// page's own ?from= query parameter.
func (s *Server) chartHandler(c *gin.Context) {
	// The configured start offset becomes the default when the page is
	// opened without an explicit one.
	if _, given := c.GetQuery("from"); !given && s.config.FromHeight > 0 {
		c.Redirect(http.StatusFound, fmt.Sprintf("/chart?from=%d", s.config.FromHeight))
		return
	}
	if _, ok := fromParam(c); !ok {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(chartPage))
}

const chartPage = `<!DOCTYPE html>
<html>
<head>
<title>Shielded pool value</title>
<style>
  body { font-family: sans-serif; margin: 2em; }
  canvas { border: 1px solid #ccc; width: 100%; }
  #info { color: #555; margin-bottom: 1em; }
</style>
</head>
<body>
<h2>Shielded pool value</h2>
<div id="info">loading&hellip;</div>
<canvas id="chart" width="1200" height="500"></canvas>
<script>
(async function () {
  const from = new URLSearchParams(window.location.search).get("from") || "0";
  const resp = await fetch("/api/v1/series?from=" + from);
  if (!resp.ok) {
    document.getElementById("info").textContent = "failed to load series: " + resp.status;
    return;
  }
  const data = await resp.json();
  const entries = data.entries || [];
  document.getElementById("info").textContent =
    entries.length + " blocks from height " + data.from;
  if (entries.length < 2) return;

  const canvas = document.getElementById("chart");
  const ctx = canvas.getContext("2d");
  const w = canvas.width, h = canvas.height, pad = 50;

  let min = Infinity, max = -Infinity;
  for (const e of entries) {
    if (e.value < min) min = e.value;
    if (e.value > max) max = e.value;
  }
  if (min === max) { min -= 1; max += 1; }

  const x = i => pad + (w - 2 * pad) * i / (entries.length - 1);
  const y = v => h - pad - (h - 2 * pad) * (v - min) / (max - min);

  ctx.strokeStyle = "#888";
  ctx.strokeRect(pad, pad, w - 2 * pad, h - 2 * pad);
  ctx.fillStyle = "#333";
  ctx.fillText(entries[0].height, pad, h - pad + 15);
  ctx.fillText(entries[entries.length - 1].height, w - pad - 30, h - pad + 15);
  ctx.fillText(max.toFixed(2), 2, pad);
  ctx.fillText(min.toFixed(2), 2, h - pad);

  ctx.strokeStyle = "#1f77b4";
  ctx.beginPath();
  entries.forEach((e, i) => {
    if (i === 0) ctx.moveTo(x(i), y(e.value));
    else ctx.lineTo(x(i), y(e.value));
  });
  ctx.stroke();
})();
</script>
</body>
</html>
`
