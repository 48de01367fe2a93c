package core

// Key code definitions
type KeyCode uint16

const (
	KEY_ESCAPE KeyCode = 0x1B
	KEY_SPACE  KeyCode = 0x20
	KEY_LEFT   KeyCode = 0x25
	KEY_UP     KeyCode = 0x26
	KEY_RIGHT  KeyCode = 0x27
	KEY_DOWN   KeyCode = 0x28
	KEY_A      KeyCode = 0x41
	KEY_D      KeyCode = 0x44
	KEY_E      KeyCode = 0x45
	KEY_Q      KeyCode = 0x51
	KEY_R      KeyCode = 0x52
	KEY_S      KeyCode = 0x53
	KEY_W      KeyCode = 0x57

	KEYS_MAX_KEYS KeyCode = 0xFF
)

// Input tracks keyboard state for the current and previous frame and fires
// key events on the bus.
type Input struct {
	bus      *EventBus
	current  [KEYS_MAX_KEYS]bool
	previous [KEYS_MAX_KEYS]bool
}

func NewInput(bus *EventBus) *Input {
	return &Input{bus: bus}
}

// Update copies the current state into the previous one. Call once per frame,
// after every consumer read its input.
func (in *Input) Update(deltaTime float64) {
	in.previous = in.current
}

// ProcessKey records a key transition and fires the matching event.
func (in *Input) ProcessKey(key KeyCode, pressed bool) {
	if key >= KEYS_MAX_KEYS || in.current[key] == pressed {
		return
	}
	in.current[key] = pressed

	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	if in.bus != nil {
		in.bus.Fire(EventContext{Type: code, Data: &KeyEvent{KeyCode: key}})
	}
}

func (in *Input) IsKeyDown(key KeyCode) bool {
	return key < KEYS_MAX_KEYS && in.current[key]
}

func (in *Input) WasKeyDown(key KeyCode) bool {
	return key < KEYS_MAX_KEYS && in.previous[key]
}
