package telemetry

import (
	"context"

	"github.com/petasbytes/localmind/internal/metrics"
)

// FeaturesVersion identifies the shape of the question feature block.
const FeaturesVersion = "1"

// ConversationStarted records size features of the user's question.
func (r *Recorder) ConversationStarted(ctx context.Context, question string, messages int) {
	if r == nil {
		return
	}
	fields := Fields(ctx)
	fields["features_version"] = FeaturesVersion
	fields["messages"] = messages
	fields["question"] = metrics.CountFeatures(question)
	r.Emit("conversation_started", fields)
}
