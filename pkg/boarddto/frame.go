package boarddto

// PieceView is one registered piece as the renderer sees it.
type PieceView struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Color    string     `json:"color"`
	Square   string     `json:"square"`
	Node     string     `json:"node,omitempty"`
	Position [3]float64 `json:"position"`
}

type CameraView struct {
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
	Progress float64    `json:"progress"`
	GameView bool       `json:"gameView"`
}

type EffectView struct {
	Active    bool       `json:"active"`
	Time      float64    `json:"time"`
	Strength  float64    `json:"strength"`
	GlowColor [3]float32 `json:"glowColor"`
	NoiseMap  string     `json:"noiseMap"`
}

// Frame is the full renderer-facing state after a tick.
type Frame struct {
	Seq          uint64      `json:"seq"`
	Turn         string      `json:"turn"`
	FEN          string      `json:"fen"`
	Animating    bool        `json:"animating"`
	Selected     string      `json:"selected,omitempty"`
	Highlighted  int         `json:"highlighted"`
	HighlightVer uint64      `json:"highlightVersion"`
	TileColors   []float32   `json:"tileColors,omitempty"`
	Pieces       []PieceView `json:"pieces"`
	Outline      []string    `json:"outline"`
	Camera       CameraView  `json:"camera"`
	Effect       EffectView  `json:"effect"`
	Checkmate    bool        `json:"checkmate"`
	Outcome      string      `json:"outcome,omitempty"`
	LastMove     string      `json:"lastMove,omitempty"`
}
