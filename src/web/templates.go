package web

import (
	"html/template"
	"net/http"
	"strings"
)

var funcMap = template.FuncMap{
	"title": func(name string) string {
		switch name {
		case "facets":
			return "Satisfaction per Class"
		case "airlines":
			return "Top Airlines"
		case "trend":
			return "Yearly Trend"
		case "split":
			return "Satisfaction Split"
		}
		return strings.ToUpper(name[:1]) + name[1:]
	},
	"wide": func(name string) bool { return name == "facets" },
}

func render(w http.ResponseWriter, tmplStr string, data interface{}) {
	t, err := template.New("page").Funcs(funcMap).Parse(tmplBase + tmplStr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

const tmplBase = `
{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Airline Customer Satisfaction</title>
<style>
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:Inter,system-ui,-apple-system,"Segoe UI",Roboto,Helvetica,Arial,sans-serif;background:#f7f7fb;color:#1f2937;min-height:100vh}
h1{text-align:center;font-size:26px;font-weight:700;margin:18px 0}
.row{width:92%;margin:10px auto;display:flex;gap:12px;flex-wrap:wrap;align-items:flex-start}
.ctl{flex:1;min-width:220px}
.ctl label{display:block;font-size:12px;color:#6b7280;margin-bottom:4px}
.ctl select{width:100%;min-height:110px;border:1px solid #ddd;border-radius:8px;padding:4px}
button,.speed{padding:10px 14px;border-radius:12px;border:1px solid #ddd;background:#fff;cursor:pointer}
#year-label{font-weight:600;margin-left:20px;align-self:center}
.slider{width:92%;margin:4px auto}
.slider input{width:100%}
.marks{display:flex;justify-content:space-between;font-size:11px;color:#6b7280}
.kpis{display:flex;gap:16px;flex-wrap:wrap;width:92%;margin:18px auto}
.kpi{padding:16px;border-radius:16px;box-shadow:0 8px 20px rgba(0,0,0,.06);background:#fff;min-width:200px}
.kpi .lbl{font-size:13px;color:#6b7280}
.kpi .val{font-size:24px;font-weight:600}
.kpi .sub{font-size:11px;color:#9ca3af;min-height:14px}
.charts{width:96%;margin:8px auto;display:flex;flex-wrap:wrap;gap:12px}
.chart{background:#fff;border-radius:12px;padding:8px;flex:1 1 45%}
.chart.wide{flex-basis:100%}
.chart h2{font-size:14px;font-weight:600;margin:4px 8px}
.chart img{width:100%;display:block}
footer{width:92%;margin:16px auto;font-size:12px;color:#6b7280}
footer a{color:#2563eb}
</style>
</head>
<body>
{{template "content" .}}
</body>
</html>{{end}}
`

const tmplDashboard = `
{{define "content"}}
<h1>Airline Customer Satisfaction - Offline Live Dashboard</h1>
<div class="row">
  <div class="ctl"><label for="airline-dd">Airlines</label><select id="airline-dd" multiple></select></div>
  <div class="ctl"><label for="class-dd">Class</label><select id="class-dd" multiple></select></div>
  <div class="ctl"><label for="travel-dd">Type of Travel</label><select id="travel-dd" multiple></select></div>
</div>
<div class="row">
  <button id="play-btn">&#9199; Play / Pause</button>
  <select id="speed-dd" class="speed"></select>
  <div id="year-label"></div>
</div>
<div class="slider">
  <input id="year-slider" type="range" step="1">
  <div id="marks" class="marks"></div>
</div>
<div id="kpi-row" class="kpis"></div>
<div class="charts">
{{range .Charts}}
  <div class="chart{{if wide .}} wide{{end}}">
    <h2 id="title-{{.}}">{{title .}}</h2>
    <img id="chart-{{.}}" data-name="{{.}}" alt="{{title .}}">
  </div>
{{end}}
</div>
<footer><a href="/export.xlsx">Export filtered records (xlsx)</a> &middot; <a href="/logs">Logs</a> &middot; <a href="/metrics">Metrics</a></footer>
<script>
(function(){
  const $ = id => document.getElementById(id);
  const selected = el => Array.from(el.selectedOptions).map(o => o.value);
  let generation = 0;

  function fill(el, values, chosen){
    el.innerHTML = "";
    values.forEach(v => {
      const o = document.createElement("option");
      o.value = v; o.textContent = v; o.selected = chosen.includes(v);
      el.appendChild(o);
    });
  }

  function post(path, body){
    return fetch(path, {method:"POST", headers:{"Content-Type":"application/json"}, body: JSON.stringify(body || {})})
      .then(r => r.json()).then(apply);
  }

  function apply(v){
    if (!v || v.error) return;
    generation++;
    $("year-label").textContent = v.label;
    $("year-slider").value = v.year;
    const row = $("kpi-row");
    row.innerHTML = "";
    v.tiles.forEach(t => {
      const d = document.createElement("div");
      d.className = "kpi";
      d.innerHTML = '<div class="lbl"></div><div class="val"></div><div class="sub"></div>';
      d.children[0].textContent = t.label;
      d.children[1].textContent = t.value;
      d.children[2].textContent = t.sub || "";
      row.appendChild(d);
    });
    document.querySelectorAll("img[data-name]").forEach(img => {
      const name = img.dataset.name;
      img.src = "/charts/" + name + ".png?g=" + generation + "&y=" + v.year;
      if (v.titles[name]) $("title-" + name).textContent = v.titles[name];
    });
  }

  function controls(){
    post("/api/controls", {
      airlines: selected($("airline-dd")),
      classes: selected($("class-dd")),
      travel_types: selected($("travel-dd")),
      year: parseInt($("year-slider").value, 10)
    });
  }

  fetch("/api/options").then(r => r.json()).then(opt => {
    fill($("airline-dd"), opt.airlines, opt.defaults.airlines);
    fill($("class-dd"), opt.classes, opt.defaults.classes);
    fill($("travel-dd"), opt.travel_types, opt.defaults.travel_types);
    const sp = $("speed-dd");
    opt.speeds.forEach(s => {
      const o = document.createElement("option");
      o.value = s.interval_ms; o.textContent = s.label;
      sp.appendChild(o);
    });
    const slider = $("year-slider");
    slider.min = opt.year_min; slider.max = opt.year_max;
    $("marks").innerHTML = opt.marks.map(m => "<span>" + m + "</span>").join("");
    return fetch("/api/view").then(r => r.json()).then(v => {
      sp.value = v.interval_ms;
      apply(v);
    });
  });

  ["airline-dd", "class-dd", "travel-dd"].forEach(id => $(id).addEventListener("change", controls));
  $("year-slider").addEventListener("change", controls);
  $("play-btn").addEventListener("click", () => post("/api/play"));
  $("speed-dd").addEventListener("change", e => post("/api/speed", {interval_ms: parseInt(e.target.value, 10)}));

  function connect(){
    const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    ws.onmessage = e => { const m = JSON.parse(e.data); if (m.type === "view") apply(m.data); };
    ws.onclose = () => setTimeout(connect, 2000);
  }
  connect();
})();
</script>
{{end}}
`
