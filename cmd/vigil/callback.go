package main

// callbackHTML is shown in the browser once the federated login hands the
// session back to the terminal.
const callbackHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>vigil</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
body{
  background:#071016;color:#d8eef2;
  font-family:'JetBrains Mono','SF Mono','Consolas',monospace;
  height:100vh;display:flex;align-items:center;justify-content:center;
}
.card{text-align:center}
.logo{font-size:30px;font-weight:700;letter-spacing:14px;margin-bottom:22px}
.logo span{display:inline-block;animation:pulse 3s ease-in-out infinite}
.logo span:nth-child(1){color:#0d9488;animation-delay:0s}
.logo span:nth-child(2){color:#14b8a6;animation-delay:.12s}
.logo span:nth-child(3){color:#22d3ee;animation-delay:.24s}
.logo span:nth-child(4){color:#14b8a6;animation-delay:.36s}
.logo span:nth-child(5){color:#0d9488;animation-delay:.48s}
@keyframes pulse{0%,100%{opacity:.55}50%{opacity:1}}
.msg{font-size:14px;color:#34d474;font-weight:600;margin-bottom:8px}
.sub{font-size:12px;color:#5b6b74}
</style>
</head>
<body>
<div class="card">
  <div class="logo"><span>V</span><span>I</span><span>G</span><span>I</span><span>L</span></div>
  <div class="msg">signed in</div>
  <div class="sub">you can close this tab and return to your terminal</div>
</div>
</body>
</html>`
