package domain

import "errors"

// NoticeKind identifies why a notice was raised.
type NoticeKind string

const (
	NoticeOutOfRegion   NoticeKind = "out_of_region"
	NoticeFetchFailed   NoticeKind = "fetch_failed"
	NoticePlaceNotFound NoticeKind = "place_not_found"
	NoticeEmptyQuery    NoticeKind = "empty_query"
)

// Notice is a user-visible message with a single acknowledgement action.
type Notice struct {
	Kind  NoticeKind `json:"kind"`
	Title string     `json:"title"`
	Body  string     `json:"body,omitempty"`
}

var notices = map[NoticeKind]Notice{
	NoticeOutOfRegion: {
		Kind:  NoticeOutOfRegion,
		Title: "請搜尋台北市內的地點",
		Body:  "您所在或選擇的地點不在台北市範圍內，將重設為預設位置",
	},
	NoticeFetchFailed: {
		Kind:  NoticeFetchFailed,
		Title: "無法取得車格資料",
		Body:  "請稍後再試",
	},
	NoticePlaceNotFound: {
		Kind:  NoticePlaceNotFound,
		Title: "找不到該地點",
		Body:  "請嘗試其他搜尋關鍵字，或選下拉選單中的地點",
	},
	NoticeEmptyQuery: {
		Kind:  NoticeEmptyQuery,
		Title: "請輸入搜尋關鍵字",
	},
}

// NoticeFor maps a taxonomy error to the notice shown for it. Geolocation
// failures and superseded fetches return false: they fall back silently.
func NoticeFor(err error) (Notice, bool) {
	switch {
	case err == nil:
		return Notice{}, false
	case errors.Is(err, ErrOutOfRegion):
		return notices[NoticeOutOfRegion], true
	case errors.Is(err, ErrEmptyQuery):
		return notices[NoticeEmptyQuery], true
	case errors.Is(err, ErrPlaceNotResolved):
		return notices[NoticePlaceNotFound], true
	case errors.Is(err, ErrUpstreamRejected), errors.Is(err, ErrUnreachable):
		return notices[NoticeFetchFailed], true
	default:
		return Notice{}, false
	}
}
