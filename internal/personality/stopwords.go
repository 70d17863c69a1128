package personality

// stopwords is a compact English stopword list used by vocabulary
// statistics. Filtering keeps the common-word table about how the user
// writes, not about English.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "any": true, "can": true,
	"had": true, "her": true, "was": true, "one": true, "our": true,
	"out": true, "day": true, "get": true, "has": true, "him": true,
	"his": true, "how": true, "man": true, "new": true, "now": true,
	"old": true, "see": true, "two": true, "way": true, "who": true,
	"did": true, "its": true, "let": true, "she": true, "too": true,
	"use": true, "that": true, "with": true, "have": true, "this": true,
	"will": true, "your": true, "from": true, "they": true, "know": true,
	"want": true, "been": true, "good": true, "much": true, "some": true,
	"time": true, "very": true, "when": true, "come": true, "here": true,
	"just": true, "like": true, "long": true, "make": true, "many": true,
	"more": true, "only": true, "over": true, "such": true, "take": true,
	"than": true, "them": true, "well": true, "were": true, "what": true,
	"would": true, "there": true, "their": true, "about": true,
	"which": true, "these": true, "other": true, "could": true,
	"where": true, "after": true, "think": true, "being": true,
	"going": true, "because": true, "should": true, "really": true,
	"into": true, "then": true, "also": true, "dont": true, "don't": true,
	"it's": true, "i'm": true, "that's": true,
}
