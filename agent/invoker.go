package agent

import (
	"context"
	"fmt"

	"github.com/smallnest/planexec/llm"
	"github.com/smallnest/planexec/log"
	"github.com/tmc/langchaingo/llms"
)

// StructuredOutputInvoker drives a schema-bound model call to a decoded
// result. Parse failures are retried by re-sampling the model; every
// other error aborts immediately. MaxAttempts of 0 retries without limit.
type StructuredOutputInvoker struct {
	client      llm.ModelClient
	binding     llm.SchemaBinding
	maxAttempts int
	logger      log.Logger
}

// NewStructuredOutputInvoker binds a schema to the client. maxAttempts
// caps the retry loop; 0 means retry until the context is done.
func NewStructuredOutputInvoker(client llm.ModelClient, binding llm.SchemaBinding, maxAttempts int, logger log.Logger) *StructuredOutputInvoker {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &StructuredOutputInvoker{
		client:      client,
		binding:     binding,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Invoke calls the model until it produces a well-formed instance of the
// bound schema, then decodes it into out.
func (inv *StructuredOutputInvoker) Invoke(ctx context.Context, messages []llms.MessageContent, out any) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := inv.client.InvokeStructured(ctx, messages, inv.binding)
		if err == nil {
			err = result.Decode(out)
			if err == nil {
				return nil
			}
		}

		if !llm.IsParseError(err) {
			return err
		}

		inv.logger.Debug("structured output attempt %d failed to parse: %v", attempt, err)
		if inv.maxAttempts > 0 && attempt >= inv.maxAttempts {
			return fmt.Errorf("structured output not obtained after %d attempts: %w", attempt, err)
		}
	}
}
