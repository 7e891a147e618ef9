package service

import (
	"regexp"
	"strings"

	"DocHive/backend/go/internal/models"
)

// 扩展名到内容类别的固定映射。按声明顺序匹配，第一个命中的类别生效，
// 都不命中归入 Other。
var categoryPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{models.KindVideo, regexp.MustCompile(`\.(mpg|mpeg|avi|rm|rmvb|mov|wmv|asf|dat|asx|wvx|mpe|mpa|mp4)$`)},
	{models.KindPicture, regexp.MustCompile(`\.(jpg|jpeg|png|tif|gif|pcx|tga|exif|fpx|svg|psd|cdr|pcd|dxf|ufo|eps|ai|raw|wmf|webp|avif|apng|icon|ico)$`)},
	{models.KindMusic, regexp.MustCompile(`\.(wav|flac|ape|alac|wavpack|wv|mp3|aac|ogg|vorbis|opus)$`)},
	{models.KindDocument, regexp.MustCompile(`\.(pdf|doc|ppt|yml|xml|htm|json|csv|txt|ini|xsl|wps|rtf|hlp|pages|numbers|key)$`)},
}

// fileKind 按文件名扩展名对内容分类，匹配不区分大小写。
func fileKind(filename string) string {
	fnm := strings.ToLower(filename)
	for _, p := range categoryPatterns {
		if p.re.MatchString(fnm) {
			return p.kind
		}
	}
	return models.KindOther
}
