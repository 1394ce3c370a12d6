package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(uploadChunksTotal, uploadBytesTotal, uploadChunkRetriesTotal) }

var uploadChunksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shorts_upload_chunks_total",
		Help: "Resumable upload chunks by result.",
	},
	[]string{"result"}, // 'accepted', 'retried', 'failed'
)

var uploadBytesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "shorts_upload_bytes_total",
		Help: "Bytes acknowledged by the video platform.",
	},
)

var uploadChunkRetriesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "shorts_upload_chunk_retries_total",
		Help: "Chunk sends repeated after a transient platform error.",
	},
)

func IncUploadChunk(result string) {
	uploadChunksTotal.WithLabelValues(norm(result)).Inc()
}

func AddUploadBytes(n int64) {
	uploadBytesTotal.Add(float64(n))
}

func IncUploadChunkRetry() { uploadChunkRetriesTotal.Inc() }
