// Package globeengine turns a referral graph snapshot into an animated,
// performance-adaptive 3D globe scene. It has no renderer dependency; the
// globeview package draws what the engine computes.
package globeengine

import (
	"errors"
	"image/color"
)

type NodeID string

type Node struct {
	ID          NodeID
	Lat, Lng    float64
	Size        float64
	Color       color.RGBA
	CountryCode string
	DisplayName string
	BoatColor   *color.RGBA
}

type Link struct {
	Source, Target NodeID
}

// Key is the logical edge key used for agent registration.
func (l Link) Key() string {
	return string(l.Source) + "->" + string(l.Target)
}

type Identity struct {
	ID          NodeID
	DisplayName string
	BoatColor   *color.RGBA
}

var (
	ErrNotHydrated = errors.New("graph not hydrated")
	ErrUnknownNode = errors.New("unknown node")
	ErrClosed      = errors.New("engine closed")
)

var (
	ColorBaseline  = color.RGBA{120, 170, 255, 255}
	ColorIdentity  = color.RGBA{255, 196, 0, 255}
	ColorConnected = color.RGBA{0, 230, 180, 255}
	ColorEdge      = color.RGBA{90, 120, 170, 255}
	ColorEdgeChain = color.RGBA{255, 210, 90, 255}
	ColorGuestBoat = color.RGBA{200, 220, 255, 255}
)

const (
	SizeBaseline  = 0.35
	SizeIdentity  = 1.1
	SizeConnected = 0.7
)
