/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package backend

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnknownMonitor  = errors.New("unknown location monitor")
	ErrUnknownLocation = errors.New("unknown monitoring location")
	ErrNoConfiguration = errors.New("no polling package for location")
)

// notFound lists the errors carried as codes.NotFound. The client restores
// them from the status message.
var notFound = []error{ErrUnknownMonitor, ErrUnknownLocation, ErrNoConfiguration}

func toStatus(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	for _, target := range notFound {
		if errors.Is(err, target) {
			return status.Error(codes.NotFound, err.Error())
		}
	}

	return status.Error(codes.Internal, err.Error())
}

func fromStatus(method string, err error) error {
	st, ok := status.FromError(err)
	if ok && st.Code() == codes.NotFound {
		for _, target := range notFound {
			if strings.Contains(st.Message(), target.Error()) {
				return fmt.Errorf("%s: %w: %s", method, target, st.Message())
			}
		}
	}

	return fmt.Errorf("%s: %w", method, err)
}
