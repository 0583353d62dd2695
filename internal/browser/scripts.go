package browser

import (
	"encoding/json"
	"fmt"
)

const pointerID = "mouse-pointer"

// visibleBoxFunction resolves to the bounding box once the element is rendered and visible.
const visibleBoxFunction = `function(sel) {
	const el = document.querySelector(sel);
	if (!el) return null;
	const rect = el.getBoundingClientRect();
	const style = window.getComputedStyle(el);
	if (rect.width === 0 || rect.height === 0 || style.display === 'none' || style.visibility === 'hidden') return null;
	return {x: rect.x, y: rect.y, width: rect.width, height: rect.height};
}`

func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

func screenScript(ratio float64) string {
	return fmt.Sprintf(`({width: window.screen.width, height: Math.floor(window.screen.height * %g)})`, ratio)
}

func pointerScript(x, y float64) string {
	return fmt.Sprintf(`(function() {
	let pointer = document.getElementById(%[1]s);
	if (!pointer) {
		pointer = document.createElement('div');
		pointer.id = %[1]s;
		pointer.style.position = 'absolute';
		pointer.style.width = '10px';
		pointer.style.height = '10px';
		pointer.style.backgroundColor = 'red';
		pointer.style.borderRadius = '50%%';
		pointer.style.zIndex = '9999';
		pointer.style.pointerEvents = 'none';
		document.body.appendChild(pointer);
	}
	pointer.style.left = '%[2]fpx';
	pointer.style.top = '%[3]fpx';
	return true;
})()`, jsString(pointerID), x, y)
}

func textContentScript(selector string) string {
	return fmt.Sprintf(`(function(sel) {
	const el = document.querySelector(sel);
	return el ? {found: true, value: el.textContent || ''} : {found: false, value: ''};
})(%s)`, jsString(selector))
}

func outerHTMLScript(selector string) string {
	return fmt.Sprintf(`(function(sel) {
	const el = document.querySelector(sel);
	return el ? {found: true, value: el.outerHTML} : {found: false, value: ''};
})(%s)`, jsString(selector))
}

func innerTextsScript(selector string) string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(el => el.innerText)`, jsString(selector))
}
