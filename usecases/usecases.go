package usecases

import (
	"github.com/checkmarble/kyc-backend/infra"
	"github.com/checkmarble/kyc-backend/repositories"
	"github.com/checkmarble/kyc-backend/usecases/executor_factory"
)

type Usecases struct {
	Repositories repositories.Repositories
	apiVersion   string
	blobConfig   infra.BlobConfig
	metrics      *infra.KycMetrics
}

type Option func(*options)

func WithApiVersion(apiVersion string) Option {
	return func(o *options) {
		o.apiVersion = apiVersion
	}
}

func WithBlobConfig(config infra.BlobConfig) Option {
	return func(o *options) {
		o.blobConfig = config
	}
}

func WithDocumentBucketUrl(bucket string) Option {
	return func(o *options) {
		o.blobConfig.DocumentBucketUrl = bucket
	}
}

func WithExtractionBucketUrl(bucket string) Option {
	return func(o *options) {
		o.blobConfig.ExtractionBucketUrl = bucket
	}
}

func WithMetrics(metrics *infra.KycMetrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

type options struct {
	apiVersion string
	blobConfig infra.BlobConfig
	metrics    *infra.KycMetrics
}

func NewUsecases(repos repositories.Repositories, opts ...Option) Usecases {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = infra.NewKycMetrics()
	}

	return Usecases{
		Repositories: repos,
		apiVersion:   o.apiVersion,
		blobConfig:   o.blobConfig,
		metrics:      o.metrics,
	}
}

func (usecases *Usecases) NewExecutorFactory() executor_factory.ExecutorFactory {
	return executor_factory.NewDbExecutorFactory(usecases.Repositories.ExecutorGetter)
}

func (usecases *Usecases) NewTransactionFactory() executor_factory.TransactionFactory {
	return executor_factory.NewDbExecutorFactory(usecases.Repositories.ExecutorGetter)
}

func (usecases *Usecases) Metrics() *infra.KycMetrics {
	return usecases.metrics
}

func (usecases *Usecases) ApiVersion() string {
	return usecases.apiVersion
}

func (usecases *Usecases) NewLivenessUsecase() LivenessUsecase {
	return LivenessUsecase{
		executorFactory:    usecases.NewExecutorFactory(),
		livenessRepository: usecases.Repositories.KycRepository,
	}
}

func (usecases *Usecases) NewKycLifecycle() KycLifecycle {
	return NewKycLifecycle(
		usecases.NewTransactionFactory(),
		usecases.Repositories.KycRepository,
		usecases.metrics,
	)
}

func (usecases *Usecases) NewKycIntakeUsecase() KycIntakeUsecase {
	return KycIntakeUsecase{
		transactionFactory: usecases.NewTransactionFactory(),
		lifecycle:          usecases.NewKycLifecycle(),
		blobRepository:     usecases.Repositories.BlobRepository,
		metrics:            usecases.metrics,
		clock:              usecases.Repositories.Clock,
		bucketUrl:          usecases.blobConfig.DocumentBucketUrl,
		uploadUrlExpiry:    usecases.blobConfig.UploadUrlExpiry,
	}
}

func (usecases *Usecases) NewKycIngestionUsecase() KycIngestionUsecase {
	return KycIngestionUsecase{
		executorFactory:     usecases.NewExecutorFactory(),
		repository:          usecases.Repositories.KycRepository,
		lifecycle:           usecases.NewKycLifecycle(),
		blobRepository:      usecases.Repositories.BlobRepository,
		documentAnalyzer:    usecases.Repositories.DocumentIntelligenceRepository,
		metrics:             usecases.metrics,
		clock:               usecases.Repositories.Clock,
		bucketUrl:           usecases.blobConfig.DocumentBucketUrl,
		extractionBucketUrl: usecases.blobConfig.ExtractionBucket(),
		readUrlExpiry:       usecases.blobConfig.ReadUrlExpiry,
	}
}

func (usecases *Usecases) NewKycAnalysisUsecase() KycAnalysisUsecase {
	return KycAnalysisUsecase{
		executorFactory:     usecases.NewExecutorFactory(),
		transactionFactory:  usecases.NewTransactionFactory(),
		repository:          usecases.Repositories.KycRepository,
		lifecycle:           usecases.NewKycLifecycle(),
		blobRepository:      usecases.Repositories.BlobRepository,
		reasoner:            usecases.Repositories.ReasoningRepository,
		metrics:             usecases.metrics,
		clock:               usecases.Repositories.Clock,
		extractionBucketUrl: usecases.blobConfig.ExtractionBucket(),
	}
}

func (usecases *Usecases) NewKycReviewUsecase() KycReviewUsecase {
	return KycReviewUsecase{
		executorFactory:    usecases.NewExecutorFactory(),
		transactionFactory: usecases.NewTransactionFactory(),
		repository:         usecases.Repositories.KycRepository,
		lifecycle:          usecases.NewKycLifecycle(),
	}
}

func (usecases *Usecases) NewAccountUsecase() AccountUsecase {
	return AccountUsecase{
		executorFactory: usecases.NewExecutorFactory(),
		repository:      usecases.Repositories.KycRepository,
		tokenIssuer:     usecases.Repositories.JwtRepository,
		clock:           usecases.Repositories.Clock,
	}
}
