// Package recorder sequences one recording session: it launches the encoder,
// runs marker detection for as long as the encoder records, and after Stop
// hands the finished recording to a single background worker that validates
// it, extracts highlight clips and merges them.
//
// All session state lives in Recorder and changes only inside its methods,
// under one mutex. Collaborators are small interfaces so the lifecycle can be
// exercised without ffmpeg or OpenCV.
package recorder
