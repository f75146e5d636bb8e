package enrich

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
)

var requirementWords = []string{
	"requirement", "qualification", "what you'll need", "what you will need",
	"what you bring", "what we're looking for", "what we look for", "who you are",
	"you have", "you'll have", "must have", "skills",
	"要求", "任职", "资格", "必備", "応募資格",
}

var benefitWords = []string{
	"benefit", "perk", "what we offer", "we offer", "why join", "why you'll love",
	"compensation", "package",
	"福利", "待遇", "福利厚生",
}

const (
	maxHeadingRunes = 80
	maxItemRunes    = 500
	headingTags     = "h1, h2, h3, h4, h5, h6"
)

type listKind int

const (
	listNone listKind = iota
	listRequirements
	listBenefits
)

func classifyHeading(text string) listKind {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || len([]rune(text)) > maxHeadingRunes {
		return listNone
	}
	for _, w := range benefitWords {
		if strings.Contains(text, w) {
			return listBenefits
		}
	}
	for _, w := range requirementWords {
		if strings.Contains(text, w) {
			return listRequirements
		}
	}
	return listNone
}

// MineLists collects requirement and benefit bullets from <li> elements
// under matching headings or inside matching containers. Each list is
// deduplicated and capped at MaxListItems.
func MineLists(doc *goquery.Document) (requirements, benefits []string) {
	add := func(kind listKind, items []string) {
		switch kind {
		case listRequirements:
			requirements = append(requirements, items...)
		case listBenefits:
			benefits = append(benefits, items...)
		}
	}

	doc.Find(headingTags + ", strong, b").Each(func(_ int, h *goquery.Selection) {
		kind := classifyHeading(h.Text())
		if kind == listNone {
			return
		}
		anchor := h
		// <p><strong>Requirements</strong></p> puts the list after the paragraph.
		if !h.Is(headingTags) && h.Parent().Is("p, div, span") && h.Parent().Find("li").Length() == 0 {
			anchor = h.Parent()
		}
		add(kind, listAfter(anchor))
	})

	doc.Find("[class*=requirement], [class*=qualification], [id*=requirement], [id*=qualification]").Each(func(_ int, s *goquery.Selection) {
		add(listRequirements, items(s))
	})
	doc.Find("[class*=benefit], [class*=perk], [id*=benefit], [id*=perk]").Each(func(_ int, s *goquery.Selection) {
		add(listBenefits, items(s))
	})

	return capList(requirements), capList(benefits)
}

// listAfter returns the items of the first list following anchor, stopping
// at the next heading.
func listAfter(anchor *goquery.Selection) []string {
	var out []string
	anchor.NextAll().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Is(headingTags) || (s.Is("p") && s.Children().Is("strong, b") && s.Find("li").Length() == 0 && classifyHeading(s.Text()) != listNone) {
			return false
		}
		if found := items(s); len(found) > 0 {
			out = found
			return false
		}
		return true
	})
	return out
}

func items(s *goquery.Selection) []string {
	var out []string
	lis := s.Find("li")
	if s.Is("li") {
		lis = lis.AddSelection(s)
	}
	lis.Each(func(_ int, li *goquery.Selection) {
		if li.Find("li").Length() > 0 {
			return
		}
		text := strings.Join(strings.Fields(li.Text()), " ")
		if n := len([]rune(text)); n > 1 && n <= maxItemRunes {
			out = append(out, text)
		}
	})
	return out
}

func capList(list []string) []string {
	list = lo.Uniq(list)
	if len(list) > MaxListItems {
		list = list[:MaxListItems]
	}
	return list
}
