package chromium

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
)

// refAttr tags XPath matches so they can be fetched as DOM nodes with a CSS
// query, which unlike BySearch can be scoped to a frame.
const refAttr = "data-pagekit-ref"

// xpathTagJS marks every element matching an XPath with a token. It runs with
// `this` bound to either a document or a frame element.
const xpathTagJS = `function() {
	const xpath = %s, token = %s, attr = %s;
	const doc = this.nodeType === 9 ? this : this.contentDocument;
	if (!doc) { throw new Error('frame document is not accessible'); }
	const snap = doc.evaluate(xpath, doc, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	let n = 0;
	for (let i = 0; i < snap.snapshotLength; i++) {
		const el = snap.snapshotItem(i);
		if (el.nodeType === 1) { el.setAttribute(attr, token); n++; }
	}
	return n;
}`

const untagJS = `function() {
	const token = %s, attr = %s;
	const doc = this.nodeType === 9 ? this : this.contentDocument;
	if (!doc) { return; }
	doc.querySelectorAll('[' + attr + '="' + token + '"]').forEach(el => el.removeAttribute(attr));
}`

func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}

// cssString quotes s as a CSS string literal.
func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `"` + r.Replace(s) + `"`
}

// scope returns the query options that confine a query to the current frame.
func scope(frames []*cdp.Node) []chromedp.QueryOption {
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if n := len(frames); n > 0 {
		opts = append(opts, chromedp.FromNode(frames[n-1]))
	}
	return opts
}

func (d *Driver) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, driver.NewError(driver.CodeInvalidSelector, "find elements", err)
	}
	_, frames, err := d.snapshot("find elements")
	if err != nil {
		return nil, err
	}

	var nodes []*cdp.Node
	switch loc.By {
	case driver.ByCSS:
		err = d.runPage(ctx, "find elements", chromedp.Nodes(loc.Value, &nodes, scope(frames)...))
	case driver.ByXPath:
		nodes, err = d.findXPath(ctx, loc.Value, frames)
	}
	if err != nil {
		return nil, err
	}

	out := make([]driver.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{d: d, node: n})
	}
	return out, nil
}

func (d *Driver) findXPath(ctx context.Context, expr string, frames []*cdp.Node) ([]*cdp.Node, error) {
	token := uuid.NewString()
	tag := fmt.Sprintf(xpathTagJS, jsonEncode(expr), jsonEncode(token), jsonEncode(refAttr))
	untag := fmt.Sprintf(untagJS, jsonEncode(token), jsonEncode(refAttr))

	var count int
	if len(frames) == 0 {
		err := d.runPage(ctx, "find elements", chromedp.Evaluate("("+tag+").call(document)", &count))
		if err != nil {
			return nil, err
		}
	} else if err := d.callOn(ctx, "find elements", frames[len(frames)-1].NodeID, tag, &count); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	var nodes []*cdp.Node
	sel := "[" + refAttr + "=" + cssString(token) + "]"
	err := d.runPage(ctx, "find elements", chromedp.Nodes(sel, &nodes, scope(frames)...))

	if len(frames) == 0 {
		_ = d.runPage(ctx, "find elements", chromedp.Evaluate("("+untag+").call(document)", nil))
	} else {
		_ = d.callOn(ctx, "find elements", frames[len(frames)-1].NodeID, untag, nil)
	}
	return nodes, err
}

func (d *Driver) SwitchToFrameIndex(ctx context.Context, index int) error {
	_, frames, err := d.snapshot("switch frame")
	if err != nil {
		return err
	}
	var candidates []*cdp.Node
	if err := d.runPage(ctx, "switch frame", chromedp.Nodes("iframe, frame", &candidates, scope(frames)...)); err != nil {
		return err
	}
	if index < 0 || index >= len(candidates) {
		return driver.Errorf(driver.CodeNoSuchFrame, "switch frame", "frame index %d out of range (%d frames)", index, len(candidates))
	}
	d.pushFrame(candidates[index])
	return nil
}

func (d *Driver) SwitchToFrameName(ctx context.Context, nameOrID string) error {
	_, frames, err := d.snapshot("switch frame")
	if err != nil {
		return err
	}
	q := cssString(nameOrID)
	sel := fmt.Sprintf(`iframe[name=%[1]s], iframe[id=%[1]s], frame[name=%[1]s], frame[id=%[1]s]`, q)

	var candidates []*cdp.Node
	if err := d.runPage(ctx, "switch frame", chromedp.Nodes(sel, &candidates, scope(frames)...)); err != nil {
		return err
	}
	if len(candidates) == 0 {
		return driver.Errorf(driver.CodeNoSuchFrame, "switch frame", "no frame named %q", nameOrID)
	}
	d.pushFrame(candidates[0])
	return nil
}

func (d *Driver) pushFrame(n *cdp.Node) {
	d.mu.Lock()
	d.frames = append(d.frames, n)
	d.mu.Unlock()
}

func (d *Driver) SwitchToDefaultContent(ctx context.Context) error {
	if _, _, err := d.snapshot("switch frame"); err != nil {
		return err
	}
	d.resetFrames()
	return nil
}
