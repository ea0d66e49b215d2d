package live

const indexPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>reloverlay</title>
<style>
  body { margin: 0; font-family: arial, sans-serif; }
  #surface { position: relative; width: 100vw; height: 100vh; }
  #error { position: fixed; bottom: 0; left: 0; color: #a00; padding: 4px; }
</style>
</head>
<body>
<div id="surface"><div id="regions"></div><div id="overlay"></div></div>
<div id="error"></div>
<script>
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (ev) => {
  const f = JSON.parse(ev.data);
  if (f.type === "error") { document.getElementById("error").textContent = f.error; return; }
  document.getElementById("regions").innerHTML = f.regions;
  document.getElementById("overlay").innerHTML = f.overlay;
};
let drag = null;
document.addEventListener("mousedown", (ev) => {
  const g = ev.target.closest("[id^=region-]");
  if (g) drag = { id: g.id.slice(7), x: ev.clientX, y: ev.clientY };
});
document.addEventListener("mouseup", (ev) => {
  if (!drag) return;
  ws.send(JSON.stringify({ op: "move", id: drag.id, dx: ev.clientX - drag.x, dy: ev.clientY - drag.y }));
  drag = null;
});
</script>
</body>
</html>
`
