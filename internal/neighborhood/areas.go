package neighborhood

import "strings"

// Area is one of Chicago's 77 community areas.
type Area struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var communityAreas = []Area{
	{1, "Rogers Park"}, {2, "West Ridge"}, {3, "Uptown"}, {4, "Lincoln Square"},
	{5, "North Center"}, {6, "Lake View"}, {7, "Lincoln Park"}, {8, "Near North Side"},
	{9, "Edison Park"}, {10, "Norwood Park"}, {11, "Jefferson Park"}, {12, "Forest Glen"},
	{13, "North Park"}, {14, "Albany Park"}, {15, "Portage Park"}, {16, "Irving Park"},
	{17, "Dunning"}, {18, "Montclare"}, {19, "Belmont Cragin"}, {20, "Hermosa"},
	{21, "Avondale"}, {22, "Logan Square"}, {23, "Humboldt Park"}, {24, "West Town"},
	{25, "Austin"}, {26, "West Garfield Park"}, {27, "East Garfield Park"}, {28, "Near West Side"},
	{29, "North Lawndale"}, {30, "South Lawndale"}, {31, "Lower West Side"}, {32, "Loop"},
	{33, "Near South Side"}, {34, "Armour Square"}, {35, "Douglas"}, {36, "Oakland"},
	{37, "Fuller Park"}, {38, "Grand Boulevard"}, {39, "Kenwood"}, {40, "Washington Park"},
	{41, "Hyde Park"}, {42, "Woodlawn"}, {43, "South Shore"}, {44, "Chatham"},
	{45, "Avalon Park"}, {46, "South Chicago"}, {47, "Burnside"}, {48, "Calumet Heights"},
	{49, "Roseland"}, {50, "Pullman"}, {51, "South Deering"}, {52, "East Side"},
	{53, "West Pullman"}, {54, "Riverdale"}, {55, "Hegewisch"}, {56, "Garfield Ridge"},
	{57, "Archer Heights"}, {58, "Brighton Park"}, {59, "McKinley Park"}, {60, "Bridgeport"},
	{61, "New City"}, {62, "West Elsdon"}, {63, "Gage Park"}, {64, "Clearing"},
	{65, "West Lawn"}, {66, "Chicago Lawn"}, {67, "West Englewood"}, {68, "Englewood"},
	{69, "Greater Grand Crossing"}, {70, "Ashburn"}, {71, "Auburn Gresham"}, {72, "Beverly"},
	{73, "Washington Heights"}, {74, "Mount Greenwood"}, {75, "Morgan Park"}, {76, "O'Hare"},
	{77, "Edgewater"},
}

// neighborhood names people actually search for, keyed lowercase
var aliases = map[string]int{
	"wicker park":        24,
	"bucktown":           24,
	"ukrainian village":  24,
	"east village":       24,
	"noble square":       24,
	"river west":         24,
	"lakeview":           6,
	"wrigleyville":       6,
	"boystown":           6,
	"northalsted":        6,
	"roscoe village":     5,
	"ravenswood":         4,
	"andersonville":      77,
	"old town":           8,
	"gold coast":         8,
	"streeterville":      8,
	"river north":        8,
	"the loop":           32,
	"downtown":           32,
	"printers row":       32,
	"south loop":         33,
	"west loop":          28,
	"little italy":       28,
	"university village": 28,
	"pilsen":             31,
	"little village":     30,
	"chinatown":          34,
	"bronzeville":        35,
	"back of the yards":  61,
	"canaryville":        61,
	"west rogers park":   2,
	"sauganash":          12,
	"ohare":              76,
	"portage":            15,
	"garfield park":      27,
	"marquette park":     66,
	"jackson park":       42,
}

var byName map[string]Area

func init() {
	byName = make(map[string]Area, len(communityAreas)+len(aliases))
	byID := make(map[int]Area, len(communityAreas))
	for _, a := range communityAreas {
		byID[a.ID] = a
		byName[strings.ToLower(a.Name)] = a
	}
	for alias, id := range aliases {
		byName[alias] = byID[id]
	}
}

// Match looks up a neighborhood or community area name. The lookup is exact
// apart from case and surrounding whitespace.
func Match(text string) (Area, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	a, ok := byName[key]
	return a, ok
}

// Areas lists all community areas in id order.
func Areas() []Area {
	out := make([]Area, len(communityAreas))
	copy(out, communityAreas)
	return out
}
