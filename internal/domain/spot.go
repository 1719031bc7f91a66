package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ParkingSpot is one facility as reported by the upstream map API.
// Values are built fresh from each fetch and never mutated.
type ParkingSpot struct {
	ParkID         string  `json:"parkId"`
	ParkName       string  `json:"parkName"`
	ServiceTime    string  `json:"servicetime"`
	Address        string  `json:"address,omitempty"`
	Tel            string  `json:"tel,omitempty"`
	Payex          string  `json:"payex"`
	CarTicketPrice string  `json:"carTicketPrice,omitempty"`
	Lon            float64 `json:"lon"`
	Lat            float64 `json:"lat"`

	CarTotalNum       int `json:"carTotalNum"`
	CarRemainderNum   int `json:"carRemainderNum"`
	MotorTotalNum     int `json:"motorTotalNum"`
	MotorRemainderNum int `json:"motorRemainderNum"`

	// Carried through, not displayed.
	BusTotalNum           int    `json:"busTotalNum"`
	BusRemainderNum       int    `json:"busRemainderNum"`
	LargeMotorTotalNum    int    `json:"largeMotorTotalNum"`
	BikeTotalNum          int    `json:"bikeTotalNum"`
	PregnancyFirst        int    `json:"pregnancy_First"`
	HandicapFirst         int    `json:"handicap_First"`
	ChargeStationTotalNum int    `json:"chargeStationTotalNum"`
	ChargeStation         int    `json:"chargeStation"`
	FullRateLevel         int    `json:"fullRateLevel"`
	InfoType              int    `json:"infoType"`
	PointMapInfo          string `json:"pointMapInfo,omitempty"`
	Remark                string `json:"remark,omitempty"`
	WKT                   string `json:"wkt,omitempty"`
	CellShareTotalNum     int    `json:"cellShareTotalNum"`
	CellSegAvail          int    `json:"cellSegAvail"`

	Entrance   json.RawMessage `json:"entrance,omitempty"`
	IndustryID json.RawMessage `json:"industryId,omitempty"`
	DataType   json.RawMessage `json:"dataType,omitempty"`
}

// Location returns the spot's coordinate.
func (s ParkingSpot) Location() Coordinate {
	return Coordinate{Lat: s.Lat, Lng: s.Lon}
}

// Remainder returns the free-space count for the given vehicle class.
func (s ParkingSpot) Remainder(class VehicleClass) int {
	if class == VehicleMotorcycle {
		return s.MotorRemainderNum
	}
	return s.CarRemainderNum
}

// Total returns the capacity for the given vehicle class.
func (s ParkingSpot) Total(class VehicleClass) int {
	if class == VehicleMotorcycle {
		return s.MotorTotalNum
	}
	return s.CarTotalNum
}

// FareSummary condenses the free-text fare for compact display:
// "30元/時" -> "30/時", any progressive tariff -> "累進", otherwise unchanged.
func (s ParkingSpot) FareSummary() string {
	switch {
	case strings.Contains(s.Payex, "元"):
		return strings.Replace(s.Payex, "元", "", 1)
	case strings.Contains(s.Payex, "累進"):
		return "累進"
	default:
		return s.Payex
	}
}

// NavigationURL is a Google Maps driving-directions link to the spot.
func (s ParkingSpot) NavigationURL() string {
	q := url.Values{
		"api":         {"1"},
		"destination": {fmt.Sprintf("%v,%v", s.Lat, s.Lon)},
		"travelmode":  {"driving"},
	}
	return "https://www.google.com/maps/dir/?" + q.Encode()
}

// Dedupe collapses spots to one entry per ParkID, keeping the first
// occurrence and preserving first-seen order.
func Dedupe(spots []ParkingSpot) []ParkingSpot {
	if spots == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(spots))
	out := make([]ParkingSpot, 0, len(spots))
	for _, s := range spots {
		if _, ok := seen[s.ParkID]; ok {
			continue
		}
		seen[s.ParkID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// MarkerSpots keeps only spots with at least one free space for class.
func MarkerSpots(spots []ParkingSpot, class VehicleClass) []ParkingSpot {
	out := make([]ParkingSpot, 0, len(spots))
	for _, s := range spots {
		if s.Remainder(class) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// SortByDistance orders spots nearest-first from origin. The input is not modified.
func SortByDistance(spots []ParkingSpot, origin Coordinate) []ParkingSpot {
	out := make([]ParkingSpot, len(spots))
	copy(out, spots)
	sort.SliceStable(out, func(i, j int) bool {
		return DistanceMeters(origin, out[i].Location()) < DistanceMeters(origin, out[j].Location())
	})
	return out
}

// VehicleClass selects which remainder count drives marker display.
type VehicleClass int

// Valid values for the VehicleClass enum.
const (
	VehicleInvalid VehicleClass = iota // zero value is invalid

	VehicleCar
	VehicleMotorcycle
)

// ErrUnknownVehicleClass indicates a string that is not a known vehicle class.
var ErrUnknownVehicleClass = errors.New("unknown vehicle class")

// Validate returns nil for car and motorcycle.
func (v VehicleClass) Validate() error {
	switch v {
	case VehicleCar, VehicleMotorcycle:
		return nil
	default:
		return fmt.Errorf("invalid vehicle class %d: %w", int(v), ErrUnknownVehicleClass)
	}
}

func (v VehicleClass) String() string {
	switch v {
	case VehicleCar:
		return "car"
	case VehicleMotorcycle:
		return "motorcycle"
	default:
		return "invalid"
	}
}

// MarshalText serializes the class by name.
func (v VehicleClass) MarshalText() ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return []byte(v.String()), nil
}

// UnmarshalText parses a class name.
func (v *VehicleClass) UnmarshalText(b []byte) error {
	parsed, err := ParseVehicleClass(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseVehicleClass accepts "car" and "motorcycle" (or "motor").
func ParseVehicleClass(s string) (VehicleClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "car":
		return VehicleCar, nil
	case "motorcycle", "motor":
		return VehicleMotorcycle, nil
	default:
		return VehicleInvalid, ErrUnknownVehicleClass
	}
}
