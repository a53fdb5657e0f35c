package domain

// A delivery target: one subscriber that receives meals at a known location.
// Subscribers without coordinates never become Stops.
type Stop struct {
	ID       string
	Name     string
	Address  string
	Location Coordinates
}

// A vendor kitchen. Its location is the depot every route starts from.
// Location is nil when the vendor has not been geocoded yet.
type Vendor struct {
	ID       string
	Name     string
	Address  string
	Location *Coordinates
}
