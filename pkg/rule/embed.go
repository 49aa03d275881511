package rule

import "embed"

// builtinCatalogsFS embeds the bundled catalogs, one category per file.
//
//go:embed catalogs/*.yml
var builtinCatalogsFS embed.FS
