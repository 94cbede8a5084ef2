package dom

// htmlEntities are HTML named character references which hand written XHTML
// commonly uses without declaring them.
var htmlEntities = map[string]string{
	"nbsp":   "\u00a0",
	"shy":    "\u00ad",
	"copy":   "©",
	"reg":    "®",
	"trade":  "™",
	"deg":    "°",
	"plusmn": "±",
	"times":  "×",
	"divide": "÷",
	"middot": "·",
	"para":   "¶",
	"sect":   "§",
	"laquo":  "«",
	"raquo":  "»",
	"lsaquo": "‹",
	"rsaquo": "›",
	"lsquo":  "‘",
	"rsquo":  "’",
	"sbquo":  "‚",
	"ldquo":  "“",
	"rdquo":  "”",
	"bdquo":  "„",
	"ndash":  "–",
	"mdash":  "—",
	"hellip": "…",
	"bull":   "•",
	"prime":  "′",
	"Prime":  "″",
	"euro":   "€",
	"pound":  "£",
	"yen":    "¥",
	"cent":   "¢",
	"ensp":   "\u2002",
	"emsp":   "\u2003",
	"thinsp": "\u2009",
	"zwnj":   "\u200c",
	"zwj":    "\u200d",
	"larr":   "←",
	"rarr":   "→",
	"uarr":   "↑",
	"darr":   "↓",
	"hearts": "♥",
}
