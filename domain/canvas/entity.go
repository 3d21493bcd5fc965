package canvas

// Segment is one line or brush application between two points.
// Seq is zero until the sequencer assigns it.
type Segment struct {
	StrokeID string  `json:"strokeId"`
	X0       float64 `json:"x0"`
	Y0       float64 `json:"y0"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	Width    float64 `json:"width"`
	Color    string  `json:"color"`
	Brush    string  `json:"brush"`
	Erase    bool    `json:"erase"`
	Seq      uint64  `json:"seq,omitempty"`
}

// StrokeMeta is fixed when a stroke begins and never changes afterwards.
type StrokeMeta struct {
	UserID string  `json:"userId"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Brush  string  `json:"brush"`
	Erase  bool    `json:"erase"`
}

// Stroke is one continuous drawing gesture.
type Stroke struct {
	ID       string     `json:"id"`
	Meta     StrokeMeta `json:"meta"`
	Segments []Segment  `json:"segments"`
	Active   bool       `json:"active"`
}

// Presence is the roster entry of a connected user.
type Presence struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Snapshot restates every active stroke of a room. Seq is the room's
// last assigned sequence number at the time the snapshot was taken.
// It is the data of the outbound state frame: {"strokes": [...], "seq": n}.
type Snapshot struct {
	Strokes []Stroke `json:"strokes"`
	Seq     uint64   `json:"seq"`
}

// MaxSeq returns the highest seq carried by the snapshot, taking the
// room watermark into account.
func (s Snapshot) MaxSeq() uint64 {
	highest := s.Seq
	for _, st := range s.Strokes {
		for _, seg := range st.Segments {
			if seg.Seq > highest {
				highest = seg.Seq
			}
		}
	}
	return highest
}

// RoomSummary is a read-only view of one room for the REST API.
type RoomSummary struct {
	ID            string `json:"id"`
	Users         int    `json:"users"`
	Strokes       int    `json:"strokes"`
	ActiveStrokes int    `json:"active_strokes"`
	RedoDepth     int    `json:"redo_depth"`
	LastSeq       uint64 `json:"last_seq"`
}
