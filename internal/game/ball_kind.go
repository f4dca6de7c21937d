package game

// BallKind is used for render colour only. Physics never reads it.
type BallKind string

const (
	KindCue    BallKind = "cue"
	KindSolid  BallKind = "solid"
	KindStripe BallKind = "stripe"
	KindEight  BallKind = "eight"
)

// KindForID maps a standard rack id to its kind.
func KindForID(id int) BallKind {
	switch {
	case id == 0:
		return KindCue
	case id == 8:
		return KindEight
	case id >= 1 && id <= 7:
		return KindSolid
	default:
		return KindStripe
	}
}
