package providers

import (
	"hash/fnv"
	"math"

	"sos-expat/backend/internal/utils"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type countryInfo struct {
	code  string
	names []string
	pos   LatLng
}

// Approximate country centroids used to place provider pins.
var countries = []countryInfo{
	{"FR", []string{"France"}, LatLng{46.6, 2.4}},
	{"BE", []string{"Belgium", "Belgique"}, LatLng{50.6, 4.6}},
	{"CH", []string{"Switzerland", "Suisse"}, LatLng{46.8, 8.2}},
	{"LU", []string{"Luxembourg"}, LatLng{49.8, 6.1}},
	{"DE", []string{"Germany", "Allemagne"}, LatLng{51.2, 10.4}},
	{"ES", []string{"Spain", "Espagne"}, LatLng{40.4, -3.7}},
	{"PT", []string{"Portugal"}, LatLng{39.6, -8.0}},
	{"IT", []string{"Italy", "Italie"}, LatLng{42.8, 12.6}},
	{"GB", []string{"United Kingdom", "Royaume-Uni", "UK"}, LatLng{54.0, -2.0}},
	{"IE", []string{"Ireland", "Irlande"}, LatLng{53.2, -8.2}},
	{"NL", []string{"Netherlands", "Pays-Bas"}, LatLng{52.2, 5.3}},
	{"GR", []string{"Greece", "Grèce"}, LatLng{39.1, 22.0}},
	{"PL", []string{"Poland", "Pologne"}, LatLng{52.1, 19.4}},
	{"SE", []string{"Sweden", "Suède"}, LatLng{62.0, 15.0}},
	{"NO", []string{"Norway", "Norvège"}, LatLng{61.0, 8.5}},
	{"DK", []string{"Denmark", "Danemark"}, LatLng{56.0, 10.0}},
	{"US", []string{"United States", "États-Unis", "USA"}, LatLng{39.8, -98.6}},
	{"CA", []string{"Canada"}, LatLng{56.1, -106.3}},
	{"MX", []string{"Mexico", "Mexique"}, LatLng{23.6, -102.6}},
	{"BR", []string{"Brazil", "Brésil"}, LatLng{-14.2, -51.9}},
	{"AR", []string{"Argentina", "Argentine"}, LatLng{-38.4, -63.6}},
	{"CL", []string{"Chile", "Chili"}, LatLng{-35.7, -71.5}},
	{"CO", []string{"Colombia", "Colombie"}, LatLng{4.6, -74.3}},
	{"PE", []string{"Peru", "Pérou"}, LatLng{-9.2, -75.0}},
	{"MA", []string{"Morocco", "Maroc"}, LatLng{31.8, -7.1}},
	{"TN", []string{"Tunisia", "Tunisie"}, LatLng{34.0, 9.0}},
	{"DZ", []string{"Algeria", "Algérie"}, LatLng{28.0, 1.7}},
	{"SN", []string{"Senegal", "Sénégal"}, LatLng{14.5, -14.5}},
	{"CI", []string{"Ivory Coast", "Côte d'Ivoire"}, LatLng{7.5, -5.5}},
	{"CM", []string{"Cameroon", "Cameroun"}, LatLng{7.4, 12.4}},
	{"ZA", []string{"South Africa", "Afrique du Sud"}, LatLng{-30.6, 22.9}},
	{"EG", []string{"Egypt", "Égypte"}, LatLng{26.8, 30.8}},
	{"AE", []string{"United Arab Emirates", "Émirats arabes unis", "UAE"}, LatLng{23.4, 53.8}},
	{"SA", []string{"Saudi Arabia", "Arabie saoudite"}, LatLng{23.9, 45.1}},
	{"QA", []string{"Qatar"}, LatLng{25.4, 51.2}},
	{"IL", []string{"Israel", "Israël"}, LatLng{31.0, 34.9}},
	{"TR", []string{"Turkey", "Turquie"}, LatLng{39.0, 35.2}},
	{"IN", []string{"India", "Inde"}, LatLng{20.6, 79.0}},
	{"TH", []string{"Thailand", "Thaïlande"}, LatLng{15.9, 100.9}},
	{"VN", []string{"Vietnam", "Viêt Nam"}, LatLng{14.1, 108.3}},
	{"KH", []string{"Cambodia", "Cambodge"}, LatLng{12.6, 104.9}},
	{"ID", []string{"Indonesia", "Indonésie"}, LatLng{-0.8, 113.9}},
	{"MY", []string{"Malaysia", "Malaisie"}, LatLng{4.2, 101.9}},
	{"SG", []string{"Singapore", "Singapour"}, LatLng{1.35, 103.8}},
	{"PH", []string{"Philippines"}, LatLng{12.9, 121.8}},
	{"CN", []string{"China", "Chine"}, LatLng{35.9, 104.2}},
	{"JP", []string{"Japan", "Japon"}, LatLng{36.2, 138.3}},
	{"KR", []string{"South Korea", "Corée du Sud"}, LatLng{35.9, 127.8}},
	{"AU", []string{"Australia", "Australie"}, LatLng{-25.3, 133.8}},
	{"NZ", []string{"New Zealand", "Nouvelle-Zélande"}, LatLng{-40.9, 174.9}},
	{"MU", []string{"Mauritius", "Maurice", "Île Maurice"}, LatLng{-20.3, 57.6}},
	{"RE", []string{"Reunion", "La Réunion"}, LatLng{-21.1, 55.5}},
}

var countryIndex = buildCountryIndex()

func buildCountryIndex() map[string]countryInfo {
	idx := make(map[string]countryInfo, len(countries)*3)
	for _, c := range countries {
		idx[utils.Fold(c.code)] = c
		for _, n := range c.names {
			idx[utils.Fold(n)] = c
		}
	}
	return idx
}

// LookupCountry resolves an ISO code or an English/French country name.
func LookupCountry(country string) (code string, pos LatLng, ok bool) {
	c, ok := countryIndex[utils.Fold(country)]
	if !ok {
		return "", LatLng{}, false
	}
	return c.code, c.pos, true
}

const maxMarkerOffsetDeg = 0.6

// MarkerPosition spreads providers of one country around its centroid. The
// offset only depends on the provider id, so pins do not move between loads.
func MarkerPosition(id string, center LatLng) LatLng {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	sum := h.Sum64()

	angle := float64(sum%3600) / 3600 * 2 * math.Pi
	radius := float64((sum>>16)%1000) / 1000 * maxMarkerOffsetDeg

	return LatLng{
		Lat: clamp(center.Lat+radius*math.Sin(angle), -85, 85),
		Lng: clamp(center.Lng+radius*math.Cos(angle), -180, 180),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ToMarker places p on the map; ok is false when the country is unknown.
func ToMarker(p Provider) (MapMarker, bool) {
	code, center, ok := LookupCountry(p.Country)
	if !ok {
		return MapMarker{}, false
	}
	pos := MarkerPosition(p.ID, center)
	return MapMarker{
		ID:          p.ID,
		Type:        p.Type,
		Name:        p.DisplayName(),
		Country:     code,
		City:        p.City,
		Lat:         pos.Lat,
		Lng:         pos.Lng,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		IsOnline:    p.IsOnline,
		Languages:   p.Languages,
	}, true
}
