package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"malt-scraper/pkg/utils"
)

// ProcessProfile implements ProfileServiceServer
func (s *Server) ProcessProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	url := req.GetFields()["url"].GetStringValue()
	if url == "" {
		return nil, status.Error(codes.InvalidArgument, "url is required")
	}

	result, err := s.service.ProcessProfile(ctx, url)
	if err != nil {
		return nil, toStatus(err)
	}

	data, err := toValue(result.Record)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode record: %v", err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"status":  structpb.NewBoolValue(true),
		"message": structpb.NewStringValue(result.Message),
		"cached":  structpb.NewBoolValue(result.Cached),
		"data":    data,
	}}, nil
}

// GetProfile implements ProfileServiceServer
func (s *Server) GetProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	profileID := req.GetFields()["profile_id"].GetStringValue()
	if profileID == "" {
		return nil, status.Error(codes.InvalidArgument, "profile_id is required")
	}

	profile, err := s.service.GetProfile(ctx, profileID)
	if err != nil {
		return nil, toStatus(err)
	}

	data, err := toValue(profile)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode profile: %v", err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"status":  structpb.NewBoolValue(true),
		"message": structpb.NewStringValue("Profile found"),
		"data":    data,
	}}, nil
}

// toValue converts v through its JSON form so field names match the HTTP API
func toValue(v interface{}) (*structpb.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return structpb.NewValue(generic)
}

// toStatus maps typed errors to gRPC codes. The error kind travels in the message.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := codes.Internal
	switch {
	case utils.IsInvalidURL(err):
		code = codes.InvalidArgument
	case utils.ErrorKind(err) == utils.KindAcquisitionInProgress:
		code = codes.Aborted
	case utils.ErrorKind(err) == utils.KindNotFound:
		code = codes.NotFound
	case utils.IsChallengeUnresolved(err):
		code = codes.Unavailable
	}
	return status.Error(code, fmt.Sprintf("%s: %s", utils.ErrorKind(err), err.Error()))
}
