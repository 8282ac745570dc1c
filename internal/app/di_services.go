package app

import (
	"context"
	"fmt"
	"net/url"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"

	artifactService "github.com/allisson/charms/internal/artifact/service"
	paymentService "github.com/allisson/charms/internal/payment/service"
	renderService "github.com/allisson/charms/internal/render/service"
)

const stripeMaxNetworkRetries = 2

// Render providers accepted in RENDER_PROVIDER.
const (
	RenderProviderOpenAI      = "openai"
	RenderProviderAzureOpenAI = "azure-openai"
	RenderProviderTemplate    = "template"
)

// URLSigner returns the HMAC signer for file bucket download links.
func (c *Container) URLSigner() (*fileblob.URLSignerHMAC, error) {
	err := c.once(&c.urlSignerInit, "urlSigner", func() error {
		secret, err := c.unseal("ARTIFACT_SIGNING_SECRET", c.config.ArtifactSigningSecret)
		if err != nil {
			return err
		}
		if secret == "" && c.usesFileBucket() {
			c.Logger().Warn("ARTIFACT_SIGNING_SECRET is empty, download links will not survive a restart")
		}
		signer, err := artifactService.NewURLSigner(c.config.PublicBaseURL, secret)
		if err != nil {
			return err
		}
		c.urlSigner = signer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.urlSigner, nil
}

// Bucket returns the artifact bucket opened from ArtifactBucketURL.
func (c *Container) Bucket() (*blob.Bucket, error) {
	err := c.once(&c.bucketInit, "bucket", func() error {
		signer, err := c.URLSigner()
		if err != nil {
			return fmt.Errorf("failed to get url signer for bucket: %w", err)
		}
		bucket, err := artifactService.OpenBucket(context.Background(), c.config.ArtifactBucketURL, signer)
		if err != nil {
			return err
		}
		c.bucket = bucket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.bucket, nil
}

// ArtifactStore returns the blob backed artifact store.
func (c *Container) ArtifactStore() (*artifactService.BlobStore, error) {
	err := c.once(&c.artifactStoreInit, "artifactStore", func() error {
		bucket, err := c.Bucket()
		if err != nil {
			return fmt.Errorf("failed to get bucket for artifact store: %w", err)
		}
		c.artifactStore = artifactService.NewBlobStore(bucket)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.artifactStore, nil
}

// PaymentGateway returns the Stripe adapter.
func (c *Container) PaymentGateway() (*paymentService.StripeGateway, error) {
	err := c.once(&c.gatewayInit, "paymentGateway", func() error {
		secretKey, err := c.unseal("STRIPE_SECRET_KEY", c.config.StripeSecretKey)
		if err != nil {
			return err
		}
		webhookSecret, err := c.unseal("STRIPE_WEBHOOK_SECRET", c.config.StripeWebhookSecret)
		if err != nil {
			return err
		}
		if secretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required")
		}
		if webhookSecret == "" {
			c.Logger().Warn("STRIPE_WEBHOOK_SECRET is empty, every webhook delivery will be rejected")
		}

		c.gateway = paymentService.NewStripeGateway(paymentService.StripeConfig{
			SecretKey:          secretKey,
			WebhookSecret:      webhookSecret,
			WebhookTolerance:   c.config.StripeWebhookTolerance,
			PaymentMethodTypes: c.config.PaymentMethods(),
			MaxNetworkRetries:  stripeMaxNetworkRetries,
			BackendURL:         c.config.StripeAPIBaseURL,
		}, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.gateway, nil
}

// Renderer returns the charm renderer backed by the configured text generator.
func (c *Container) Renderer() (*renderService.Renderer, error) {
	err := c.once(&c.rendererInit, "renderer", func() error {
		generator, err := c.initTextGenerator()
		if err != nil {
			return err
		}
		c.renderer = renderService.NewRenderer(generator)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.renderer, nil
}

func (c *Container) initTextGenerator() (renderService.TextGenerator, error) {
	switch c.config.RenderProvider {
	case RenderProviderTemplate, "":
		return renderService.NewTemplateGenerator(), nil
	case RenderProviderOpenAI, RenderProviderAzureOpenAI:
		apiKey, err := c.unseal("OPENAI_API_KEY", c.config.OpenAIAPIKey)
		if err != nil {
			return nil, err
		}
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for render provider %s", c.config.RenderProvider)
		}
		chatConfig := renderService.ChatConfig{
			APIKey:  apiKey,
			BaseURL: c.config.OpenAIBaseURL,
		}
		if c.config.RenderProvider == RenderProviderAzureOpenAI {
			if c.config.AzureOpenAIDeployment == "" {
				return nil, fmt.Errorf("AZURE_OPENAI_DEPLOYMENT is required for render provider %s", c.config.RenderProvider)
			}
			chatConfig.AzureDeployment = c.config.AzureOpenAIDeployment
			chatConfig.AzureAPIVersion = c.config.AzureOpenAIAPIVersion
		} else {
			chatConfig.Model = c.config.OpenAIModel
		}
		return renderService.NewChatGenerator(chatConfig), nil
	default:
		return nil, fmt.Errorf("unsupported render provider: %s", c.config.RenderProvider)
	}
}

// usesFileBucket reports whether artifacts are written to a local directory,
// which is the only backend served by the download route.
func (c *Container) usesFileBucket() bool {
	u, err := url.Parse(c.config.ArtifactBucketURL)
	return err == nil && u.Scheme == fileblob.Scheme
}
