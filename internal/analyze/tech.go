package analyze

import "regexp"

// techPattern maps a technology name to the regexes that betray it in raw
// HTML. Slice-ordered so detection output is deterministic.
type techPattern struct {
	name     string
	patterns []*regexp.Regexp
}

func mustPatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

var techPatterns = []techPattern{
	{"React", mustPatterns(`react(?:\.production)?\.min\.js`, `_app/static/chunks/framework`, `React\.createElement`)},
	{"Vue.js", mustPatterns(`vue(?:\.min)?\.js`, `Vue\.config`, `v-if|v-for|v-model`, `Vue\.component`)},
	{"Angular", mustPatterns(`angular(?:\.min)?\.js`, `ng-app`, `@angular/core`, `ng-controller`)},
	{"jQuery", mustPatterns(`jquery(?:-[\d.]+)?(?:\.min)?\.js`, `jQuery`)},
	{"Bootstrap", mustPatterns(`bootstrap(?:\.min)?\.css`, `bootstrap(?:\.min)?\.js`, `col-md-|col-lg-|col-sm-`, `container-fluid`)},
	{"WordPress", mustPatterns(`/wp-content/`, `/wp-includes/`, `wp-json`, `wp-admin`)},
	{"Shopify", mustPatterns(`\.myshopify\.com`, `Shopify\.theme`, `shopify-section`)},
	{"Next.js", mustPatterns(`__NEXT_DATA__`, `_next/static`, `next/router`)},
	{"Nuxt.js", mustPatterns(`__NUXT__`, `_nuxt/`, `nuxt-link`)},
	{"Drupal", mustPatterns(`Drupal\.settings`, `/sites/default/files`, `drupal\.js`)},
	{"Magento", mustPatterns(`var FORM_KEY`, `/skin/frontend/`, `Mage\.Cookies`)},
	{"Tailwind CSS", mustPatterns(`tailwindcss`, `tw-`)},
	{"Foundation", mustPatterns(`foundation\.css`, `small-\d+ |medium-\d+ `)},
	{"Bulma", mustPatterns(`bulma`, `is-primary`)},
}

// DetectTechnologies fingerprints frameworks and CMSes by regex over the raw
// HTML, in declaration order.
func DetectTechnologies(html string) []string {
	var found []string
	for _, tech := range techPatterns {
		for _, p := range tech.patterns {
			if p.MatchString(html) {
				found = append(found, tech.name)
				break
			}
		}
	}
	return found
}
