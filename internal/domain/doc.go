// Package domain models motorcycle repair shops and implements the
// shop-discovery query: a great-circle nearest-shop search with service
// category and country filtering.
//
// # Data Conventions
//
// Coordinates:
//
//	Latitude and longitude are WGS-84 degrees and are optional on a shop
//	record. Shops missing either coordinate are invisible to distance-based
//	discovery but still appear in the country catalogue. Optional values are
//	pointers; zero is a valid coordinate (the Gulf of Guinea is a real place).
//
// Country:
//
//	Free-text as entered upstream, empty when unknown. The discovery country
//	filter matches case-insensitively on the exact value ("sweden" matches
//	"Sweden", "Swede" does not). Shops with an empty country are excluded
//	from the catalogue but pass an absent country filter.
//
// Rating:
//
//	0–5 scale, nil when the shop has no reviews yet. Ordering treats an
//	unknown rating as below every known one.
//
// Service offerings:
//
//	A shop offers a category iff an offering row exists for that
//	(shop, category) pair with Available set. No row means not offered.
//
// # Ranking
//
// Discovery results are ordered by a stable three-key sort: offers-requested-
// service first, then distance ascending, then rating descending with nil
// ratings last. When a category filter is active, non-offering shops are
// dropped before ranking, so the first key only matters for unfiltered
// queries (where it is uniformly true today).
package domain
