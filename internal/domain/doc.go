// Package domain models parking availability around a point in Taipei.
//
// # Data Source
//
// Spot data comes from the Taipei City Parking Management Office map API
// (GetAllPOIData). The service relays a coordinate to the upstream and
// passes its JSON array back unchanged; clients decode it into [ParkingSpot].
// The upstream can list the same facility more than once for a single query,
// so readers collapse the list with [Dedupe] before display.
//
// # Upstream Conventions
//
// Coordinates:
//
//	The upstream takes "lon" and "lat" as decimal strings and returns them
//	as JSON numbers on each record.
//
// Remainder counts:
//
//	carRemainderNum / motorRemainderNum are live counts of free spaces.
//	Zero means full; negative values are occasionally reported for
//	facilities without sensors and are treated as full.
//
// Fares:
//
//	"payex" is free text, e.g. "30元/時" or "累進收費". [ParkingSpot.FareSummary]
//	strips the currency unit or reduces progressive pricing to a single word.
//
// # Service Region
//
// Locations are only accepted inside a fixed bounding box ([TaipeiRegion]
// by default). Bounds are inclusive; see [ServiceRegion.Contains].
package domain
