package models

// Asset identifies one instrument in the fixed tradable universe.
type Asset string

const (
	AssetUSD Asset = "USD"
	AssetEUR Asset = "EUR"
	AssetGBP Asset = "GBP"
	AssetJPY Asset = "JPY"
	AssetCHF Asset = "CHF"
	AssetCAD Asset = "CAD"
	AssetAUD Asset = "AUD"
	AssetNZD Asset = "NZD"
	AssetCNY Asset = "CNY"
	AssetXAU Asset = "XAU"
	AssetXAG Asset = "XAG"
)

// Universe is the closed set of scored assets, in enumeration order.
// All per-asset listings (GetAllBiasScores, recalculation fan-out) follow
// this order.
var Universe = []Asset{
	AssetUSD, AssetEUR, AssetGBP, AssetJPY, AssetCHF,
	AssetCAD, AssetAUD, AssetNZD, AssetCNY,
	AssetXAU, AssetXAG,
}

var universeSet = func() map[Asset]struct{} {
	m := make(map[Asset]struct{}, len(Universe))
	for _, a := range Universe {
		m[a] = struct{}{}
	}
	return m
}()

// KnownAsset reports whether a belongs to the scored universe.
func KnownAsset(a Asset) bool {
	_, ok := universeSet[a]
	return ok
}

func (a Asset) String() string { return string(a) }
