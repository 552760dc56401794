package generator

import (
	"path"
	"strings"
)

const (
	postsDirName    = "posts"
	articleListName = "article_list.html"
	indexName       = "index.html"
	sitemapName     = "sitemap.xml"
	robotsName      = "robots.txt"
)

func postOutputPath(baseDir, page string) string {
	return joinOutputPath(baseDir, path.Join(postsDirName, page))
}

func joinOutputPath(base string, rel string) string {
	if strings.TrimSpace(base) == "" {
		return strings.TrimLeft(rel, "/")
	}
	return path.Join(strings.TrimRight(base, "/"), rel)
}

// siteRoute maps an output file to its public route.
func siteRoute(rel string) string {
	rel = strings.TrimLeft(path.Clean("/"+rel), "/")
	if rel == indexName {
		return "/"
	}
	return "/" + rel
}
