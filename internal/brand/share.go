package brand

import (
	"net/url"
	"strings"
)

const missionParam = "mission"

// ShareLink embeds the mission text into a shareable URL. Decoding the
// link and resubmitting the mission reproduces the same run as manual
// entry.
func ShareLink(base *url.URL, mission string) string {
	u := *base
	q := u.Query()
	q.Set(missionParam, mission)
	u.RawQuery = q.Encode()
	return u.String()
}

// MissionFromQuery extracts the shared mission, if any.
func MissionFromQuery(values url.Values) (string, bool) {
	mission := values.Get(missionParam)
	if strings.TrimSpace(mission) == "" {
		return "", false
	}
	return mission, true
}
