package chromevideo

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/user/videoglow/pkg/ports"
)

// eventBinding is the name of the CDP binding the page calls to push
// DOM events back into Go.
const eventBinding = "__videoglowEvent"

// bindingPayload is the JSON the install script sends per event.
type bindingPayload struct {
	Kind  string `json:"kind"`
	Event string `json:"event"`
}

// Video implements ports.VideoSource over a <video> element reached by
// CSS selector. DOM events cross the protocol through a runtime
// binding; state reads are synchronous Evaluate calls.
type Video struct {
	session  *Session
	selector string

	mu             sync.Mutex
	videoHandlers  map[ports.VideoEvent]map[int]func()
	resizeHandlers map[int]func()
	visHandlers    map[int]func(visible bool)
	nextID         int
}

// Attach binds to the first element matching selector, installs the
// event bridge and starts dispatching its events.
func (s *Session) Attach(selector string) (*Video, error) {
	v := &Video{
		session:        s,
		selector:       selector,
		videoHandlers:  make(map[ports.VideoEvent]map[int]func()),
		resizeHandlers: make(map[int]func()),
		visHandlers:    make(map[int]func(visible bool)),
	}

	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		if e, ok := ev.(*cdpruntime.EventBindingCalled); ok && e.Name == eventBinding {
			v.dispatch(e.Payload)
		}
	})

	var found bool
	err := chromedp.Run(s.ctx,
		cdpruntime.AddBinding(eventBinding),
		chromedp.Evaluate(installScript(selector), &found),
	)
	if err != nil {
		return nil, fmt.Errorf("attach to video: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no element matches %q", selector)
	}
	return v, nil
}

// installScript wires the media, resize and visibility events of the
// selected element to the binding. Returns false when the selector
// misses.
func installScript(selector string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		const send = (kind, event) => window[%q](JSON.stringify({kind, event}));
		for (const e of ['loadstart','loadedmetadata','canplay','play','pause','ended','seeked']) {
			el.addEventListener(e, () => send('video', e));
		}
		new ResizeObserver(() => send('resize', '')).observe(el);
		document.addEventListener('visibilitychange', () =>
			send('visibility', document.visibilityState));
		return true;
	})()`, selector, eventBinding)
}

// dispatch fans a binding payload out to the registered handlers.
func (v *Video) dispatch(payload string) {
	var p bindingPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return
	}

	v.mu.Lock()
	var fns []func()
	switch p.Kind {
	case "video":
		for _, fn := range v.videoHandlers[ports.VideoEvent(p.Event)] {
			fns = append(fns, fn)
		}
	case "resize":
		for _, fn := range v.resizeHandlers {
			fns = append(fns, fn)
		}
	case "visibility":
		visible := p.Event == "visible"
		for _, fn := range v.visHandlers {
			fn := fn
			fns = append(fns, func() { fn(visible) })
		}
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// ReadyState reads the element's readyState.
func (v *Video) ReadyState() ports.ReadyState {
	var state int
	err := chromedp.Run(v.session.ctx,
		chromedp.Evaluate(fmt.Sprintf(`document.querySelector(%q).readyState`, v.selector), &state))
	if err != nil {
		return ports.HaveNothing
	}
	return mapReadyState(state)
}

// mapReadyState converts the HTMLMediaElement readyState integer.
func mapReadyState(state int) ports.ReadyState {
	switch {
	case state <= 0:
		return ports.HaveNothing
	case state == 1:
		return ports.HaveMetadata
	case state == 2:
		return ports.HaveCurrentData
	case state == 3:
		return ports.HaveFutureData
	default:
		return ports.HaveEnoughData
	}
}

// NativeSize reads videoWidth and videoHeight.
func (v *Video) NativeSize() (int, int) {
	var dims [2]int
	err := chromedp.Run(v.session.ctx,
		chromedp.Evaluate(fmt.Sprintf(
			`(() => { const el = document.querySelector(%q); return [el.videoWidth, el.videoHeight]; })()`,
			v.selector), &dims))
	if err != nil {
		return 0, 0
	}
	return dims[0], dims[1]
}

// DisplayedSize reads the element's layout box.
func (v *Video) DisplayedSize() (float64, float64) {
	var dims [2]float64
	err := chromedp.Run(v.session.ctx,
		chromedp.Evaluate(fmt.Sprintf(
			`(() => { const r = document.querySelector(%q).getBoundingClientRect(); return [r.width, r.height]; })()`,
			v.selector), &dims))
	if err != nil {
		return 0, 0
	}
	return dims[0], dims[1]
}

// Paused reports whether the element is paused or ended.
func (v *Video) Paused() bool {
	var paused bool
	err := chromedp.Run(v.session.ctx,
		chromedp.Evaluate(fmt.Sprintf(
			`(() => { const el = document.querySelector(%q); return el.paused || el.ended; })()`,
			v.selector), &paused))
	if err != nil {
		return true
	}
	return paused
}

// CurrentFrame paints the element onto an offscreen canvas and pulls
// the pixels back as PNG. A cross-origin source taints the canvas and
// makes toDataURL throw, which surfaces here as an error.
func (v *Video) CurrentFrame() (image.Image, error) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el || el.videoWidth === 0) return '';
		const canvas = document.createElement('canvas');
		canvas.width = el.videoWidth;
		canvas.height = el.videoHeight;
		canvas.getContext('2d').drawImage(el, 0, 0);
		return canvas.toDataURL('image/png');
	})()`, v.selector)

	var dataURL string
	if err := chromedp.Run(v.session.ctx, chromedp.Evaluate(script, &dataURL)); err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if dataURL == "" {
		return nil, fmt.Errorf("video has no decodable frame")
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		return nil, fmt.Errorf("unexpected frame encoding")
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[len(prefix):])
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	img, err := png.Decode(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode frame png: %w", err)
	}
	return img, nil
}

// On registers a handler for a media event.
func (v *Video) On(event ports.VideoEvent, fn func()) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.videoHandlers[event] == nil {
		v.videoHandlers[event] = make(map[int]func())
	}
	id := v.nextID
	v.nextID++
	v.videoHandlers[event][id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.videoHandlers[event], id)
	}
}

// ResizeSignal exposes the element's ResizeObserver stream.
func (v *Video) ResizeSignal() ports.ResizeObserver {
	return resizeSignal{v: v}
}

// VisibilitySignal exposes the document's visibility changes.
func (v *Video) VisibilitySignal() ports.VisibilityObserver {
	return visibilitySignal{v: v}
}

type resizeSignal struct{ v *Video }

func (r resizeSignal) Observe(fn func()) func() {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	id := r.v.nextID
	r.v.nextID++
	r.v.resizeHandlers[id] = fn
	return func() {
		r.v.mu.Lock()
		defer r.v.mu.Unlock()
		delete(r.v.resizeHandlers, id)
	}
}

type visibilitySignal struct{ v *Video }

func (s visibilitySignal) Observe(fn func(visible bool)) func() {
	s.v.mu.Lock()
	defer s.v.mu.Unlock()
	id := s.v.nextID
	s.v.nextID++
	s.v.visHandlers[id] = fn
	return func() {
		s.v.mu.Lock()
		defer s.v.mu.Unlock()
		delete(s.v.visHandlers, id)
	}
}

// Ensure Video implements ports.VideoSource
var _ ports.VideoSource = (*Video)(nil)
