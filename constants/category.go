package constants

import "strings"

type Category string

const (
	Dairy        Category = "Dairy"
	Produce      Category = "Produce"
	Meat         Category = "Meat"
	Bakery       Category = "Bakery"
	Beverages    Category = "Beverages"
	Frozen       Category = "Frozen"
	CannedGoods  Category = "Canned Goods"
	Snacks       Category = "Snacks"
	Household    Category = "Household"
	PersonalCare Category = "Personal Care"
	Baby         Category = "Baby"
	Pet          Category = "Pet"
	Pharmacy     Category = "Pharmacy"
	Other        Category = "Other"
)

var allCategories = []Category{
	Dairy,
	Produce,
	Meat,
	Bakery,
	Beverages,
	Frozen,
	CannedGoods,
	Snacks,
	Household,
	PersonalCare,
	Baby,
	Pet,
	Pharmacy,
	Other,
}

// categoryKeywords is checked in order; the first category whose keyword
// appears in the product name wins, so more specific buckets (Frozen) come
// before broader ones (Beverages).
var categoryKeywords = []struct {
	Category Category
	Keywords []string
}{
	{Dairy, []string{"milk", "cheese", "yogurt", "butter", "cream", "sour cream", "cottage cheese", "half & half", "whipping cream", "heavy cream"}},
	{Produce, []string{"banana", "apple", "orange", "lettuce", "tomato", "onion", "potato", "carrot", "broccoli", "spinach", "kale", "cucumber", "pepper", "grape", "strawberry", "blueberry", "avocado", "mushroom", "celery", "corn", "peas", "squash", "zucchini"}},
	{Meat, []string{"chicken", "beef", "pork", "turkey", "ham", "bacon", "sausage", "steak", "ground", "breast", "thigh", "wing", "roast", "chop", "cutlet", "fillet", "tenderloin", "ribs", "drumstick"}},
	{Bakery, []string{"bread", "bun", "roll", "cake", "cookie", "muffin", "donut", "pastry", "croissant", "bagel", "tortilla", "pita", "english muffin", "danish", "eclair"}},
	{Frozen, []string{"frozen", "ice cream", "pizza", "french fries", "nugget", "popsicle", "waffle"}},
	{Beverages, []string{"soda", "cola", "juice", "water", "coffee", "tea", "beer", "wine", "drink", "lemonade", "sparkling"}},
	{CannedGoods, []string{"canned", "soup", "tuna", "tomato sauce", "pasta sauce", "chili", "stew"}},
	{Snacks, []string{"chip", "cracker", "popcorn", "pretzel", "candy", "chocolate", "gum", "trail mix", "granola bar", "protein bar", "jerky", "dried fruit"}},
	{Household, []string{"paper towel", "toilet paper", "soap", "detergent", "cleaner", "trash bag", "ziploc", "fabric softener", "bleach"}},
	{PersonalCare, []string{"shampoo", "toothpaste", "deodorant", "lotion", "razor", "makeup", "toothbrush", "mouthwash", "body wash", "sunscreen"}},
	{Baby, []string{"diaper", "formula", "baby food", "wipes", "pacifier", "baby wash", "baby lotion", "baby cereal"}},
	{Pet, []string{"dog food", "cat food", "pet food", "litter", "pet toy", "bird seed", "fish food"}},
	{Pharmacy, []string{"medicine", "pill", "tablet", "prescription", "tylenol", "advil", "aspirin", "pain reliever", "vitamin", "supplement"}},
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Categorize maps a product name to a taxonomy category by keyword lookup.
func Categorize(productName string) Category {
	name := strings.ToLower(productName)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.Keywords {
			if strings.Contains(name, kw) {
				return entry.Category
			}
		}
	}
	return Other
}

// Canonicalize maps a free-form category label (typically from an LLM reply)
// onto the taxonomy. The bool reports whether the label was recognized;
// unrecognized labels fall back to Other.
func Canonicalize(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Other, false
	}

	synonyms := map[string]Category{
		"fruit":         Produce,
		"fruits":        Produce,
		"vegetable":     Produce,
		"vegetables":    Produce,
		"poultry":       Meat,
		"seafood":       Meat,
		"fish":          Meat,
		"deli":          Meat,
		"bread":         Bakery,
		"beverage":      Beverages,
		"drinks":        Beverages,
		"cleaning":      Household,
		"paper goods":   Household,
		"toiletries":    PersonalCare,
		"hygiene":       PersonalCare,
		"health":        Pharmacy,
		"medication":    Pharmacy,
		"snack":         Snacks,
		"pets":          Pet,
		"grocery":       Other,
		"groceries":     Other,
		"food":          Other,
		"misc":          Other,
		"miscellaneous": Other,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}
	return Other, false
}
