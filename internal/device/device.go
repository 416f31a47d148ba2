// Package device talks to the display that shows the captured art.
package device

import (
	"context"
	"time"

	"golang.org/x/xerrors"
)

// Client is the capability set the pipeline needs from a display.
type Client interface {
	Connect(ctx context.Context) error
	// Upload stores the image on the device and returns the identifier the
	// device assigned to it.
	Upload(ctx context.Context, data []byte, options UploadOptions) (string, error)
	SetCurrentArt(ctx context.Context, id string) error
	// AvailableArt lists the stored items in the order the device reports them.
	AvailableArt(ctx context.Context) ([]ArtItem, error)
	DeleteArt(ctx context.Context, ids []string) error
	Close() error
}

type ArtItem struct {
	ID         string
	Date       time.Time
	MatteType  MatteType
	MatteColor MatteColor
	Category   string
}

type UploadOptions struct {
	FileType   string
	MatteType  MatteType
	MatteColor MatteColor
}

type MatteType string

const (
	MatteNone       MatteType = "none"
	MatteModernThin MatteType = "modernthin"
	MatteModern     MatteType = "modern"
	MatteModernWide MatteType = "modernwide"
	MatteFlexible   MatteType = "flexible"
	MatteShadowbox  MatteType = "shadowbox"
	MattePanoramic  MatteType = "panoramic"
	MatteTriptych   MatteType = "triptych"
	MatteMix        MatteType = "mix"
	MatteSquares    MatteType = "squares"
)

var MatteTypes = []MatteType{
	MatteNone,
	MatteModernThin,
	MatteModern,
	MatteModernWide,
	MatteFlexible,
	MatteShadowbox,
	MattePanoramic,
	MatteTriptych,
	MatteMix,
	MatteSquares,
}

func ParseMatteType(s string) (MatteType, error) {
	for _, m := range MatteTypes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", xerrors.Errorf("invalid matte type %q, must be one of %v", s, MatteTypes)
}

type MatteColor string

const (
	MatteColorUnset     MatteColor = ""
	MatteColorBlack     MatteColor = "black"
	MatteColorNeutral   MatteColor = "neutral"
	MatteColorAntique   MatteColor = "antique"
	MatteColorWarm      MatteColor = "warm"
	MatteColorPolar     MatteColor = "polar"
	MatteColorSand      MatteColor = "sand"
	MatteColorSeafoam   MatteColor = "seafoam"
	MatteColorSage      MatteColor = "sage"
	MatteColorBurgandy  MatteColor = "burgandy"
	MatteColorNavy      MatteColor = "navy"
	MatteColorApricot   MatteColor = "apricot"
	MatteColorByzantine MatteColor = "byzantine"
	MatteColorLavender  MatteColor = "lavender"
	MatteColorRedOrange MatteColor = "redorange"
	MatteColorSkyBlue   MatteColor = "skyblue"
	MatteColorTurquoise MatteColor = "turquoise"
)

var MatteColors = []MatteColor{
	MatteColorBlack,
	MatteColorNeutral,
	MatteColorAntique,
	MatteColorWarm,
	MatteColorPolar,
	MatteColorSand,
	MatteColorSeafoam,
	MatteColorSage,
	MatteColorBurgandy,
	MatteColorNavy,
	MatteColorApricot,
	MatteColorByzantine,
	MatteColorLavender,
	MatteColorRedOrange,
	MatteColorSkyBlue,
	MatteColorTurquoise,
}

// ParseMatteColor accepts the empty string as "no color".
func ParseMatteColor(s string) (MatteColor, error) {
	if s == "" {
		return MatteColorUnset, nil
	}
	for _, c := range MatteColors {
		if string(c) == s {
			return c, nil
		}
	}
	return "", xerrors.Errorf("invalid matte color %q, must be one of %v", s, MatteColors)
}

// MatteID is the identifier the Frame art service uses for a matte, e.g.
// "shadowbox_polar".
func MatteID(t MatteType, c MatteColor) string {
	if t == "" || t == MatteNone {
		return string(MatteNone)
	}
	if c == MatteColorUnset {
		return string(t)
	}
	return string(t) + "_" + string(c)
}

// ParseMatteID splits a device matte identifier back into its parts.
// Unknown parts are kept verbatim.
func ParseMatteID(id string) (MatteType, MatteColor) {
	if id == "" || id == string(MatteNone) {
		return MatteNone, MatteColorUnset
	}
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '_' {
			return MatteType(id[:i]), MatteColor(id[i+1:])
		}
	}
	return MatteType(id), MatteColorUnset
}
