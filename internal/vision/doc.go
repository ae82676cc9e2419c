// Package vision finds marker images inside screen frames with OpenCV.
//
// Markers and frames are reduced to Canny edge maps and compared with
// normalized cross-correlation (TM_CCOEFF_NORMED). A frame matches when any
// marker's best coefficient exceeds the configured threshold; markers are tried
// in library order and the first match wins.
package vision
