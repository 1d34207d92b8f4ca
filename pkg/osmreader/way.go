package osmreader

import "github.com/lintang-b-s/osmnet/pkg/osmtags"

// Way is the raw unit of linear geography handed to the reader: an ordered
// list of OSM node references plus tags.
type Way struct {
	ID      int64
	NodeIDs []int64
	Tags    map[string]string
}

// Name returns the tagged name, if any.
func (w *Way) Name() string {
	return w.Tags[osmtags.KeyName]
}
