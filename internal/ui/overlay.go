package ui

import (
	"time"
)

// Cuánto vive el emoji flotante tras elegir una reacción.
const effectLifetime = 1500 * time.Millisecond

// Coords es una posición en celdas de pantalla.
type Coords struct {
	X, Y int
}

// Rect es el área del disparador al que se ancla el popover.
type Rect struct {
	X, Y, W, H int
}

// Popover es el selector de reacciones abierto para un post concreto.
// Hay a lo sumo uno en todo el sistema.
type Popover struct {
	PostID  int
	Anchor  Rect
	Choices []string
	Cursor  int

	onChoose func(emoji string)
	armed    bool
}

// Effect es una animación transitoria (el emoji flotante) que se borra sola.
type Effect struct {
	Kind      string
	Glyph     string
	At        Coords
	ExpiresAt time.Time
}

// OverlayManager maneja la capa transitoria que vive fuera del redibujado
// del feed: el popover de reacciones y los efectos flotantes. Un poll que
// cae con el popover abierto no lo toca.
type OverlayManager struct {
	popover *Popover
	effects []Effect
	now     func() time.Time
}

func NewOverlayManager() *OverlayManager {
	return &OverlayManager{now: time.Now}
}

// ShowPopover abre el selector anclado al disparador. Si ya había uno
// abierto se cierra primero; si era para el mismo post, es un toggle y
// queda cerrado.
func (o *OverlayManager) ShowPopover(postID int, anchor Rect, choices []string, onChoose func(emoji string)) bool {
	if o.popover != nil {
		samePost := o.popover.PostID == postID
		o.Close()
		if samePost {
			return false
		}
	}

	o.popover = &Popover{
		PostID:   postID,
		Anchor:   anchor,
		Choices:  choices,
		onChoose: onChoose,
	}
	return true
}

// Close cierra el popover si lo hay.
func (o *OverlayManager) Close() {
	o.popover = nil
}

// Popover devuelve el selector abierto, o nil.
func (o *OverlayManager) Popover() *Popover {
	return o.popover
}

// Arm habilita el cierre por interacción externa. Se llama con una pequeña
// demora tras abrir para que el gesto de apertura no cierre el popover
// recién creado.
func (o *OverlayManager) Arm() {
	if o.popover != nil {
		o.popover.armed = true
	}
}

// OutsideInteraction cierra el popover ante cualquier gesto fuera de él,
// una sola vez, solo si ya está armado. Devuelve true si cerró.
func (o *OverlayManager) OutsideInteraction() bool {
	if o.popover == nil || !o.popover.armed {
		return false
	}
	o.Close()
	return true
}

// Choose dispara la elección del emoji bajo el cursor: lanza el efecto
// flotante en las coordenadas dadas, avisa al dueño y cierra el popover.
func (o *OverlayManager) Choose(at Coords) {
	p := o.popover
	if p == nil || len(p.Choices) == 0 {
		return
	}

	emoji := p.Choices[p.Cursor]
	o.SpawnEffect("floating-emoji", emoji, at, effectLifetime)
	if p.onChoose != nil {
		p.onChoose(emoji)
	}
	o.Close()
}

// MoveCursor desplaza la selección dentro del popover, con tope en los bordes.
func (o *OverlayManager) MoveCursor(delta int) {
	p := o.popover
	if p == nil {
		return
	}
	p.Cursor += delta
	if p.Cursor < 0 {
		p.Cursor = 0
	}
	if p.Cursor >= len(p.Choices) {
		p.Cursor = len(p.Choices) - 1
	}
}

// SpawnEffect agrega un efecto transitorio que expira solo.
func (o *OverlayManager) SpawnEffect(kind, glyph string, at Coords, lifetime time.Duration) {
	o.effects = append(o.effects, Effect{
		Kind:      kind,
		Glyph:     glyph,
		At:        at,
		ExpiresAt: o.now().Add(lifetime),
	})
}

// Effects devuelve los efectos vivos, descartando los vencidos.
func (o *OverlayManager) Effects() []Effect {
	now := o.now()
	alive := o.effects[:0]
	for _, e := range o.effects {
		if e.ExpiresAt.After(now) {
			alive = append(alive, e)
		}
	}
	o.effects = alive
	return alive
}
