/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package clock contains a software wall clock for hosts without a battery-backed RTC.

The clock never touches the system realtime clock. It keeps a single anchor,
the wall-clock time that corresponded to the moment the clock was created,
and derives the current time by adding the elapsed time of a monotonic source.

Supported methods include
  - reading the current estimate through Now, which never fails and may be stale
  - moving the anchor through SetTime, usually after a network time exchange
  - rendering a short "Mon 09:05" string for small displays through FormatShort

Before the first SetTime the clock counts from Epoch (1970-01-01T00:00:00Z).
*/
package clock
