package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestEmailServiceDisabledWithoutAddresses(t *testing.T) {
	svc, err := NewEmailService(context.Background(), "us-east-1", "", "PyQuest", "")
	require.NoError(t, err)
	assert.False(t, svc.IsEnabled())
	assert.NoError(t, svc.SendResetCode(context.Background(), "Ada", "123456", time.Now().Add(time.Minute)))
}

func TestEmailServiceSendsCode(t *testing.T) {
	ses := &fakeSES{}
	svc := newEmailService(ses, "noreply@example.com", "PyQuest", "parent@example.com")

	err := svc.SendResetCode(context.Background(), "Ada", "042042", time.Now().Add(15*time.Minute))
	require.NoError(t, err)
	require.Len(t, ses.inputs, 1)

	in := ses.inputs[0]
	assert.Equal(t, "PyQuest <noreply@example.com>", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"parent@example.com"}, in.Destination.ToAddresses)
	assert.Contains(t, aws.ToString(in.Content.Simple.Subject.Data), "Ada")
	assert.Contains(t, aws.ToString(in.Content.Simple.Body.Text.Data), "042042")
	assert.Contains(t, aws.ToString(in.Content.Simple.Body.Text.Data), "15 minutes")
	assert.Contains(t, aws.ToString(in.Content.Simple.Body.Html.Data), "042042")
}

func TestEmailServiceWrapsSendError(t *testing.T) {
	ses := &fakeSES{err: errors.New("throttled")}
	svc := newEmailService(ses, "noreply@example.com", "", "parent@example.com")

	err := svc.SendResetCode(context.Background(), "Ada", "123456", time.Now().Add(time.Minute))
	assert.ErrorContains(t, err, "throttled")
	assert.Equal(t, "noreply@example.com", aws.ToString(ses.inputs[0].FromEmailAddress))
}
